package filestore

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacyEncodings are tried in order when a file is not UTF-8 or UTF-16.
// Both are Baltic code pages that older Latvian tools wrote.
var legacyEncodings = []encoding.Encoding{
	charmap.Windows1257,
	charmap.ISO8859_13,
}

// decodeText returns the UTF-8 JSON text of a record file. It accepts
// UTF-8 with or without a BOM, UTF-16 with a BOM and then the legacy
// Baltic code pages. ok is false when nothing yields valid JSON.
func decodeText(data []byte) (text []byte, ok bool) {
	if bytes.HasPrefix(data, utf8BOM) {
		data = data[len(utf8BOM):]
		return data, utf8.Valid(data) && json.Valid(data)
	}

	if len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(unicode.BOMOverride(dec), data)
		if err != nil {
			return nil, false
		}
		return out, json.Valid(out)
	}

	if utf8.Valid(data) {
		return data, json.Valid(data)
	}

	for _, enc := range legacyEncodings {
		out, _, err := transform.Bytes(enc.NewDecoder(), data)
		if err == nil && json.Valid(out) {
			return out, true
		}
	}
	return nil, false
}
