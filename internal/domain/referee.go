package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Referee represents a referees row.
type Referee struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	LicenseNumber      string    `json:"license_number"`
	Specialties        []string  `json:"specialties"`
	CertificationLevel string    `json:"certification_level"`
	BankAccount        *string   `json:"bank_account"`
	BankName           *string   `json:"bank_name"`
	AccountHolder      *string   `json:"account_holder"`
	IsAvailable        bool      `json:"is_available"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// RefereeCreate is the request body for POST /referees.
type RefereeCreate struct {
	UserID             string         `json:"user_id" validate:"required,uuid"`
	LicenseNumber      string         `json:"license_number" validate:"required,max=50"`
	Specialties        []*string      `json:"specialties" validate:"required"`
	CertificationLevel string         `json:"certification_level" validate:"required,max=50"`
	BankAccount        *string        `json:"bank_account" validate:"omitempty,max=50"`
	BankName           *string        `json:"bank_name" validate:"omitempty,max=100"`
	AccountHolder      *string        `json:"account_holder" validate:"omitempty,max=255"`
	IsAvailable        Optional[bool] `json:"is_available"`
}

// Validate checks the declared shape and returns a 422 AppError on failure.
func (c RefereeCreate) Validate() error {
	fields := ValidateStruct(c)
	fields = append(fields, nullElements("specialties", c.Specialties)...)
	if c.IsAvailable.Null {
		fields = append(fields, FieldError{Field: "is_available", Message: "must not be null"})
	}
	if len(fields) > 0 {
		return ErrValidationFields(fields)
	}
	return nil
}

// Referee converts a validated create request into an unsaved record.
// ID and timestamps are left for the store to assign.
func (c RefereeCreate) Referee() (*Referee, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}
	isAvailable := true
	if c.IsAvailable.HasValue() {
		isAvailable = c.IsAvailable.Value
	}
	return &Referee{
		UserID:             userID,
		LicenseNumber:      c.LicenseNumber,
		Specialties:        derefStrings(c.Specialties),
		CertificationLevel: c.CertificationLevel,
		BankAccount:        c.BankAccount,
		BankName:           c.BankName,
		AccountHolder:      c.AccountHolder,
		IsAvailable:        isAvailable,
	}, nil
}

// RefereeUpdate is the partial request body for PUT /referees/{referee_id}.
// Omitted fields are left untouched.
type RefereeUpdate struct {
	UserID             Optional[string]    `json:"user_id" validate:"omitempty,uuid"`
	LicenseNumber      Optional[string]    `json:"license_number" validate:"omitempty,max=50"`
	Specialties        Optional[[]*string] `json:"specialties"`
	CertificationLevel Optional[string]    `json:"certification_level" validate:"omitempty,max=50"`
	BankAccount        Optional[string]    `json:"bank_account" validate:"omitempty,max=50"`
	BankName           Optional[string]    `json:"bank_name" validate:"omitempty,max=100"`
	AccountHolder      Optional[string]    `json:"account_holder" validate:"omitempty,max=255"`
	IsAvailable        Optional[bool]      `json:"is_available"`
}

// Validate rejects nulls on non-nullable columns in addition to the tag rules.
func (u RefereeUpdate) Validate() error {
	var fields []FieldError
	notNull := []struct {
		name string
		null bool
	}{
		{"user_id", u.UserID.Null},
		{"license_number", u.LicenseNumber.Null},
		{"specialties", u.Specialties.Null},
		{"certification_level", u.CertificationLevel.Null},
		{"is_available", u.IsAvailable.Null},
	}
	for _, f := range notNull {
		if f.null {
			fields = append(fields, FieldError{Field: f.name, Message: "must not be null"})
		}
	}
	if u.LicenseNumber.HasValue() && u.LicenseNumber.Value == "" {
		fields = append(fields, FieldError{Field: "license_number", Message: "must not be empty"})
	}
	if u.CertificationLevel.HasValue() && u.CertificationLevel.Value == "" {
		fields = append(fields, FieldError{Field: "certification_level", Message: "must not be empty"})
	}
	fields = append(fields, nullElements("specialties", u.Specialties.Value)...)
	fields = append(fields, ValidateStruct(u)...)
	if len(fields) > 0 {
		return ErrValidationFields(fields)
	}
	return nil
}

// FieldChange is a single column assignment derived from a RefereeUpdate.
// A nil Value clears the column.
type FieldChange struct {
	Column string
	Value  any
}

// Changes lists the column assignments the caller explicitly asked for,
// in a stable column order.
func (u RefereeUpdate) Changes() ([]FieldChange, error) {
	var changes []FieldChange
	if u.UserID.HasValue() {
		id, err := uuid.Parse(u.UserID.Value)
		if err != nil {
			return nil, fmt.Errorf("parse user_id: %w", err)
		}
		changes = append(changes, FieldChange{"user_id", id})
	}
	if u.LicenseNumber.HasValue() {
		changes = append(changes, FieldChange{"license_number", u.LicenseNumber.Value})
	}
	if u.Specialties.HasValue() {
		changes = append(changes, FieldChange{"specialties", derefStrings(u.Specialties.Value)})
	}
	if u.CertificationLevel.HasValue() {
		changes = append(changes, FieldChange{"certification_level", u.CertificationLevel.Value})
	}
	changes = appendNullable(changes, "bank_account", u.BankAccount)
	changes = appendNullable(changes, "bank_name", u.BankName)
	changes = appendNullable(changes, "account_holder", u.AccountHolder)
	if u.IsAvailable.HasValue() {
		changes = append(changes, FieldChange{"is_available", u.IsAvailable.Value})
	}
	return changes, nil
}

func appendNullable(changes []FieldChange, column string, o Optional[string]) []FieldChange {
	switch {
	case !o.Set:
		return changes
	case o.Null:
		return append(changes, FieldChange{column, nil})
	default:
		return append(changes, FieldChange{column, o.Value})
	}
}

// nullElements reports each null entry of a JSON string array as name[i].
func nullElements(name string, values []*string) []FieldError {
	var fields []FieldError
	for i, v := range values {
		if v == nil {
			fields = append(fields, FieldError{Field: fmt.Sprintf("%s[%d]", name, i), Message: "must not be null"})
		}
	}
	return fields
}

func derefStrings(values []*string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
