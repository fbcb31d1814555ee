package act

import "strings"

// Party is one of the two counter-parties of an act.
// It is a plain value: copies are independent and equality is field equality.
type Party struct {
	Name               string
	RegistrationNumber string
	Address            string
	ContactName        string
	Phone              string
	Email              string
	BankAccount        string
	LegalStatus        LegalStatus
}

// IsEmpty reports whether no field is set
func (p Party) IsEmpty() bool {
	return p == Party{}
}

// SignatoryName is the name printed under the signature line:
// the contact person when known, otherwise the party name.
func (p Party) SignatoryName() string {
	if name := strings.TrimSpace(p.ContactName); name != "" {
		return name
	}
	return strings.TrimSpace(p.Name)
}
