package act

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
)

var (
	recordValidator     *validator.Validate
	recordValidatorOnce sync.Once
)

// validate returns the record validator. Field names in its errors are
// the JSON keys of the record.
func validate() *validator.Validate {
	recordValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		recordValidator = v
	})
	return recordValidator
}

var hundred = decimal.NewFromInt(100)

// ValidateRecord checks rec without changing it. Rendering stays lenient
// and accepts anything Decode accepts; this reports what a careful editor
// would flag. An empty result means the record is clean.
func ValidateRecord(rec *codec.Record) []FieldError {
	if rec == nil {
		return []FieldError{{Field: "", Message: "Record is required"}}
	}
	fieldErrors := []FieldError{}

	var verrs validator.ValidationErrors
	if err := validate().Struct(rec); err != nil {
		if !errors.As(err, &verrs) {
			return []FieldError{{Field: "", Message: err.Error()}}
		}
		for _, e := range verrs {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   fieldPath(e),
				Message: validationMessage(e),
			})
		}
	}

	if rec.VATRate.IsNegative() || rec.VATRate.GreaterThan(hundred) {
		fieldErrors = append(fieldErrors, FieldError{Field: "pvn_likme", Message: "Must be between 0 and 100"})
	}
	if rec.PenaltyRate.IsNegative() {
		fieldErrors = append(fieldErrors, FieldError{Field: "soda_procenti", Message: "Must be greater than or equal to 0"})
	}
	for i, item := range rec.Items {
		prefix := fmt.Sprintf("pozīcijas[%d].", i)
		if strings.TrimSpace(item.Description) == "" {
			fieldErrors = append(fieldErrors, FieldError{Field: prefix + "apraksts", Message: "This field is required"})
		}
		if item.Quantity.IsNegative() {
			fieldErrors = append(fieldErrors, FieldError{Field: prefix + "daudzums", Message: "Must be greater than or equal to 0"})
		}
		if item.UnitPrice.IsNegative() {
			fieldErrors = append(fieldErrors, FieldError{Field: prefix + "cena", Message: "Must be greater than or equal to 0"})
		}
	}
	return fieldErrors
}

// fieldPath drops the root type name from the namespace
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "hexcolor":
		return "Must be a hex color such as #1A2B3C"
	case "iso4217":
		return "Must be an ISO 4217 currency code"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	default:
		return "Invalid value"
	}
}
