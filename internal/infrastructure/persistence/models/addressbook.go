package models

import (
	"time"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/addressbook"
)

// PartyModel is the GORM model for the address_book table
type PartyModel struct {
	BaseModel
	LookupKey          string    `gorm:"column:lookup_key;type:varchar(300);not null;uniqueIndex"`
	Name               string    `gorm:"type:varchar(255);not null;index"`
	RegistrationNumber string    `gorm:"column:registration_number;type:varchar(50)"`
	Address            string    `gorm:"type:text"`
	ContactName        string    `gorm:"column:contact_name;type:varchar(255)"`
	Phone              string    `gorm:"type:varchar(50)"`
	Email              string    `gorm:"type:varchar(255)"`
	BankAccount        string    `gorm:"column:bank_account;type:varchar(64)"`
	LegalStatus        string    `gorm:"column:legal_status;type:varchar(50)"`
	UseCount           int       `gorm:"column:use_count;not null;default:0"`
	LastUsedAt         time.Time `gorm:"column:last_used_at"`
}

// TableName returns the table name for PartyModel
func (PartyModel) TableName() string {
	return "address_book"
}

// ToDomain converts PartyModel to an address book entry
func (m *PartyModel) ToDomain() *addressbook.Entry {
	return &addressbook.Entry{
		BaseEntity: m.BaseModel.entity(),
		Party: act.Party{
			Name:               m.Name,
			RegistrationNumber: m.RegistrationNumber,
			Address:            m.Address,
			ContactName:        m.ContactName,
			Phone:              m.Phone,
			Email:              m.Email,
			BankAccount:        m.BankAccount,
			LegalStatus:        act.LegalStatus(m.LegalStatus),
		},
		UseCount:   m.UseCount,
		LastUsedAt: m.LastUsedAt,
	}
}

// PartyModelFromDomain creates a PartyModel from an address book entry
func PartyModelFromDomain(e *addressbook.Entry) *PartyModel {
	return &PartyModel{
		BaseModel:          baseModelOf(e.BaseEntity),
		LookupKey:          e.Key(),
		Name:               e.Party.Name,
		RegistrationNumber: e.Party.RegistrationNumber,
		Address:            e.Party.Address,
		ContactName:        e.Party.ContactName,
		Phone:              e.Party.Phone,
		Email:              e.Party.Email,
		BankAccount:        e.Party.BankAccount,
		LegalStatus:        string(e.Party.LegalStatus),
		UseCount:           e.UseCount,
		LastUsedAt:         e.LastUsedAt,
	}
}
