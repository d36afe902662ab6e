package orders

import (
	"errors"
	"testing"

	"fieldreport/api/internal/store"
)

func TestValidateDraft(t *testing.T) {
	if err := ValidateDraft(store.ServiceOrder{ClientName: "Acme"}); err != nil {
		t.Fatalf("draft with client name should validate, got %v", err)
	}

	err := ValidateDraft(store.ServiceOrder{ClientName: "   "})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Missing) != 1 || verr.Missing[0] != FieldClientName {
		t.Fatalf("expected missing [client_name], got %v", verr.Missing)
	}
}

func TestValidateFinalCollectsEveryMiss(t *testing.T) {
	err := ValidateFinal(store.ServiceOrder{ClientName: "Acme"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{FieldInternalContact, FieldClientEmail, FieldEngineer, FieldServiceTypes}
	if len(verr.Missing) != len(want) {
		t.Fatalf("expected %v, got %v", want, verr.Missing)
	}
	for i, field := range want {
		if verr.Missing[i] != field {
			t.Errorf("missing[%d] = %q, want %q", i, verr.Missing[i], field)
		}
	}
}

func TestValidateFinalComplete(t *testing.T) {
	order := store.ServiceOrder{
		ClientName:   "Acme",
		ContactName:  "Sam Ortega",
		ClientEmail:  "ops@acme.test",
		EngineerName: "Rivera",
		ServiceTypes: []string{"maintenance"},
	}
	if err := ValidateFinal(order); err != nil {
		t.Fatalf("complete order should finalize, got %v", err)
	}
}

func TestCheckEdit(t *testing.T) {
	finalized := store.ServiceOrder{Folio: "OS-20250101-R001", Status: store.StatusFinalized}

	if err := CheckEdit(finalized, Actor{Name: "tech"}); err == nil {
		t.Fatal("non-elevated edit of finalized order should fail")
	}
	if err := CheckEdit(finalized, Actor{Name: "admin", Elevated: true}); err != nil {
		t.Fatalf("elevated edit should pass, got %v", err)
	}
	if err := CheckEdit(store.ServiceOrder{Status: store.StatusDraft}, Actor{Name: "tech"}); err != nil {
		t.Fatalf("draft edit should pass, got %v", err)
	}
}
