package printing

import (
	"bytes"
	"fmt"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// aesKeyLength is the key size used for document encryption
const aesKeyLength = 256

// basePermissions has every permission bit cleared except the reserved ones
const basePermissions = 0xF0C3

// PDFEncryptor password-protects a finished PDF
type PDFEncryptor interface {
	Encrypt(pdf []byte, p *act.Protection) ([]byte, error)
}

// PDFCPUEncryptor encrypts with pdfcpu using AES-256
type PDFCPUEncryptor struct{}

// NewPDFCPUEncryptor creates an encryptor. pdfcpu is kept from reading or
// writing its user configuration directory.
func NewPDFCPUEncryptor() *PDFCPUEncryptor {
	api.DisableConfigDir()
	return &PDFCPUEncryptor{}
}

// Encrypt applies the user and owner passwords and the permission mask.
// An empty owner password reuses the user password; when both are empty a
// random owner password still enforces the permissions.
func (e *PDFCPUEncryptor) Encrypt(pdf []byte, p *act.Protection) ([]byte, error) {
	if p == nil {
		return pdf, nil
	}
	user := p.UserPassword
	owner := p.OwnerPassword
	if owner == "" {
		owner = user
	}
	if owner == "" {
		owner = uuid.NewString()
	}

	conf := model.NewAESConfiguration(user, owner, aesKeyLength)
	conf.Permissions = model.PermissionFlags(basePermissions | permissionBits(p.Permissions))

	var out bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(pdf), &out, conf); err != nil {
		return nil, fmt.Errorf("failed to encrypt PDF: %w", err)
	}
	return out.Bytes(), nil
}

// permissionBits keeps only the print, modify, copy and annotate bits
func permissionBits(mask int) int {
	return mask & (act.PermissionPrint | act.PermissionModify | act.PermissionCopy | act.PermissionAnnotate)
}

var _ PDFEncryptor = (*PDFCPUEncryptor)(nil)
