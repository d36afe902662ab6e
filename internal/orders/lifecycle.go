// Package orders holds the service-order lifecycle rules: which fields a
// draft may omit, which fields finalization demands, and who may edit a
// finalized record.
package orders

import (
	"fmt"
	"strings"

	"fieldreport/api/internal/store"
)

// Actor is the person performing an operation, threaded explicitly through
// every call. Elevated actors may edit finalized orders.
type Actor struct {
	Name     string
	Elevated bool
}

// Field codes reported inside ValidationError.Missing.
const (
	FieldClientName      = "client_name"
	FieldInternalContact = "internal_contact"
	FieldClientEmail     = "email"
	FieldEngineer        = "engineer"
	FieldServiceTypes    = "service_types"
)

// ValidationError lists every missing required field, not just the first.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// ErrFinalized reports an edit attempt on a finalized order by a
// non-elevated actor.
type ErrFinalized struct {
	Folio string
}

func (e *ErrFinalized) Error() string {
	return fmt.Sprintf("order %s is finalized and cannot be edited", e.Folio)
}

// ValidateDraft checks the single constraint a draft save carries: the
// client name must be present so the order can be found again.
func ValidateDraft(o store.ServiceOrder) error {
	if strings.TrimSpace(o.ClientName) == "" {
		return &ValidationError{Missing: []string{FieldClientName}}
	}
	return nil
}

// ValidateFinal checks every field finalization requires and collects all
// misses into one error.
func ValidateFinal(o store.ServiceOrder) error {
	if err := ValidateDraft(o); err != nil {
		return err
	}
	var missing []string
	if strings.TrimSpace(o.ContactName) == "" {
		missing = append(missing, FieldInternalContact)
	}
	if strings.TrimSpace(o.ClientEmail) == "" {
		missing = append(missing, FieldClientEmail)
	}
	if strings.TrimSpace(o.EngineerName) == "" {
		missing = append(missing, FieldEngineer)
	}
	if len(o.ServiceTypes) == 0 {
		missing = append(missing, FieldServiceTypes)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// CheckEdit guards mutation of an existing order. Finalized orders stay
// finalized; elevated actors may keep editing them.
func CheckEdit(o store.ServiceOrder, actor Actor) error {
	if o.Status == store.StatusFinalized && !actor.Elevated {
		return &ErrFinalized{Folio: o.Folio}
	}
	return nil
}
