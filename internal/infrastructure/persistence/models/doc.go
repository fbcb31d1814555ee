// Package models contains the GORM models behind the address book and the
// export history. They are kept apart from the domain types, which carry no
// ORM tags; repositories convert with ToDomain and the *FromDomain helpers.
//
// Both tables are created by the SQL migrations, not by AutoMigrate.
package models
