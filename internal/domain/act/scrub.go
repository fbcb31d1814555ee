package act

// ScrubForTemplate returns a copy suitable for saving as a reusable template:
// act-specific identifiers, items, attachments and PDF passwords are cleared,
// the status is reset, and every style and settings field is kept.
func (a *Act) ScrubForTemplate() *Act {
	c := a.Clone()
	c.Number = ""
	c.Date = ""
	c.OrderNumber = ""
	c.ContractNumber = ""
	c.ContractDate = ""
	c.WorkStartDate = ""
	c.WorkEndDate = ""
	c.Items = []LineItem{}
	c.Attachments = []Attachment{}
	c.Status = StatusDraft
	c.scrubSecrets()
	return c
}

// ScrubForDefaults returns a copy suitable for seeding new acts:
// items, attachments and PDF passwords are cleared.
func (a *Act) ScrubForDefaults() *Act {
	c := a.Clone()
	c.Items = []LineItem{}
	c.Attachments = []Attachment{}
	c.scrubSecrets()
	return c
}

func (a *Act) scrubSecrets() {
	a.Security.UserPassword = ""
	a.Security.OwnerPassword = ""
}
