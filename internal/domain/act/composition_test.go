package act

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

func TestCompose_MinimalAct(t *testing.T) {
	a := minimalAct()
	c := Compose(a, ComposeOptions{Now: fixedNow})

	assert.Equal(t, DefaultTitle, c.Title)
	require.Len(t, c.Rows, 1)
	assert.Equal(t, []string{"1", "Service", "1", "pcs", "100.00", "100.00"}, c.Rows[0].Cells)
	assert.Len(t, c.Columns, 6)

	assert.Equal(t, []Field{
		{"Akta Nr.", "PP-2025-0001"},
		{"Datums", "15.01.2025"},
		{"Vieta", "Rīga"},
	}, c.Meta)
	assert.Empty(t, c.ContractLines)

	assert.Equal(t, "SIA Pieņēmējs", c.Acceptor.Name)
	assert.Empty(t, c.Acceptor.Lines)
	assert.Equal(t, "SIA Nodevējs", c.Transferor.Signatory)

	require.Len(t, c.Summary, 1)
	assert.Equal(t, "Kopā", c.Summary[0].Label)
	assert.Equal(t, "100.00 EUR", c.Summary[0].Value)
	assert.False(t, c.IncludeVATLines)

	assert.Empty(t, c.Clauses)
	assert.Nil(t, c.Cover)
	assert.Nil(t, c.Watermark)
	assert.Nil(t, c.Protection)
	assert.Empty(t, c.QRCodes)
	assert.Equal(t, SignatureLines, c.Signature.Mode)
	assert.Empty(t, c.GeneratedAt)
	assert.True(t, c.ShowPageNumbers)
}

func TestCompose_CurrencyIsNormalized(t *testing.T) {
	a := minimalAct()
	a.Currency = "usd"
	c := Compose(a, ComposeOptions{Now: fixedNow})
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, "100.00 USD", c.Summary[0].Value)

	a.Currency = ""
	c = Compose(a, ComposeOptions{Now: fixedNow})
	assert.Equal(t, "EUR", c.Currency)
}

func TestCompose_VATLines(t *testing.T) {
	t.Run("vat off has subtotal only", func(t *testing.T) {
		a := minimalAct()
		a.VAT.Include = false
		c := Compose(a, ComposeOptions{Now: fixedNow})
		require.Len(t, c.Summary, 1)
		for _, line := range c.Summary {
			assert.NotContains(t, line.Label, "PVN")
		}
	})

	t.Run("vat on with breakdown", func(t *testing.T) {
		a := minimalAct()
		a.VAT.Include = true
		c := Compose(a, ComposeOptions{Now: fixedNow})
		require.Len(t, c.Summary, 3)
		assert.Equal(t, "PVN 21%", c.Summary[1].Label)
		assert.Equal(t, "21.00 EUR", c.Summary[1].Value)
		assert.Equal(t, "121.00 EUR", c.Summary[2].Value)
		assert.True(t, c.Summary[2].Strong)
	})

	t.Run("vat on without breakdown", func(t *testing.T) {
		a := minimalAct()
		a.VAT.Include = true
		a.VAT.ShowBreakdown = false
		c := Compose(a, ComposeOptions{Now: fixedNow})
		assert.False(t, c.IncludeVATLines)
		assert.Len(t, c.Summary, 1)
	})
}

func TestCompose_Clauses(t *testing.T) {
	a := minimalAct()
	a.Legal = LegalTerms{
		Notes:               "<b>Svarīgi</b>",
		Confidentiality:     true,
		PenaltyRate:         decimal.RequireFromString("0.5"),
		Insurance:           false,
		ReferencedDocuments: "   ",
	}
	c := Compose(a, ComposeOptions{Now: fixedNow})

	require.Len(t, c.Clauses, 3)
	assert.Equal(t, "Piezīmes", c.Clauses[0].Heading)
	assert.Equal(t, "Konfidencialitāte", c.Clauses[1].Heading)
	assert.Equal(t, "Līgumsods", c.Clauses[2].Heading)
	assert.Contains(t, c.Clauses[2].Text, "0.5%")
}

func TestCompose_Signature(t *testing.T) {
	a := minimalAct()
	a.Signature.Electronic = true
	a.Signature.ShowElectronicDisclaimer = false
	c := Compose(a, ComposeOptions{Now: fixedNow})
	assert.Equal(t, SignatureElectronic, c.Signature.Mode)
	assert.Empty(t, c.Signature.Disclaimer)

	a.Signature.ShowElectronicDisclaimer = true
	c = Compose(a, ComposeOptions{Now: fixedNow})
	assert.NotEmpty(t, c.Signature.Disclaimer)

	a.Signature.Electronic = false
	a.Signature.ShowLines = false
	c = Compose(a, ComposeOptions{Now: fixedNow})
	assert.Equal(t, SignatureNone, c.Signature.Mode)
}

func TestCompose_OptionalBlocks(t *testing.T) {
	a := minimalAct()
	a.Table.ShowWarrantyColumn = true
	a.Items[0].Warranty = "24 mēn."
	a.ContractNumber = "L-1"
	a.WorkEndDate = "nav zināms"
	a.Cover = CoverPageSettings{Enabled: true, Subtitle: "Pielikums", ShowLogo: true}
	a.Typography.LogoPath = "/logo.png"
	a.AutoQR.Enabled = true
	a.CustomQR.Enabled = true
	a.CustomQR.Data = "  "
	a.Watermark.Enabled = true
	a.Security.Encrypt = true
	a.Security.AllowModify = false
	a.Output.ShowGeneratedAt = true
	a.AddAttachment("", "skipped")
	a.AddAttachment("/img.png", " Foto ")

	c := Compose(a, ComposeOptions{Now: fixedNow})

	assert.Equal(t, "24 mēn.", c.Rows[0].Cells[len(c.Rows[0].Cells)-1])
	assert.Equal(t, []Field{{"Līguma Nr.", "L-1"}, {"Darbu beigas", "nav zināms"}}, c.ContractLines)
	require.NotNil(t, c.Cover)
	assert.Equal(t, DefaultTitle, c.Cover.Title)
	assert.Equal(t, "/logo.png", c.Cover.LogoPath)

	require.Len(t, c.QRCodes, 1)
	assert.Equal(t, "auto", c.QRCodes[0].Kind)
	assert.True(t, strings.HasPrefix(c.QRCodes[0].Data, "Akts PP-2025-0001"))
	assert.Contains(t, c.QRCodes[0].Data, "100.00 EUR")

	require.NotNil(t, c.Watermark)
	assert.Equal(t, "MELNRAKSTS", c.Watermark.Text)
	require.NotNil(t, c.Protection)
	assert.Equal(t, PermissionPrint|PermissionCopy|PermissionAnnotate, c.Protection.Permissions)

	assert.Equal(t, "Ģenerēts: 15.01.2025 09:30", c.GeneratedAt)
	assert.Equal(t, []Attachment{{Path: "/img.png", Caption: "Foto"}}, c.Attachments)
}

func TestCompose_PartyLines(t *testing.T) {
	a := minimalAct()
	a.Acceptor = Party{
		Name:        "SIA Alfa",
		Address:     "Brīvības iela 1",
		ContactName: "Jānis Bērziņš",
		LegalStatus: LegalStatusLegalEntity,
	}
	c := Compose(a, ComposeOptions{Now: fixedNow})
	assert.Equal(t, []Field{
		{"Adrese", "Brīvības iela 1"},
		{"Kontaktpersona", "Jānis Bērziņš"},
		{"Statuss", "Juridiska persona"},
	}, c.Acceptor.Lines)
	assert.Equal(t, "Jānis Bērziņš", c.Acceptor.Signatory)
}

func TestPageLabel(t *testing.T) {
	c := Compose(minimalAct(), ComposeOptions{Now: fixedNow})
	assert.Equal(t, "Lapa 2 no 5", c.PageLabel(2, 5))
	assert.Equal(t, "Lapa 3 no 3", c.PageLabel(3, 0))
}
