package steps

import (
	"context"

	"github.com/ecampo/vendiq/pkg/models"
)

// Registration checks the supplier reference record for the identity fields
// every later comparison depends on. It is a critical step: a failure here
// forces the overall outcome to not_qualified.
type Registration struct {
	deps *Dependencies
}

func NewRegistration(deps *Dependencies) *Registration {
	return &Registration{deps: deps}
}

func (s *Registration) Key() string {
	return models.StepRegistration
}

func (s *Registration) Name() string {
	return "Registration record check"
}

func (s *Registration) Execute(_ context.Context, state *ExecutionState) (*Outcome, error) {
	if state.Supplier == nil {
		return fail("supplier record not found in the supplier directory"), nil
	}

	issues := make([]string, 0)

	if state.Supplier.FiscalCode == "" {
		issues = append(issues, "supplier record is missing the fiscal code")
	}

	if state.Supplier.VATNumber == "" {
		issues = append(issues, "supplier record is missing the VAT number")
	}

	if state.Supplier.CompanyName == "" {
		issues = append(issues, "supplier record is missing the company name")
	}

	if len(issues) > 0 {
		return fail(issues...), nil
	}

	outcome := pass()
	outcome.Details = map[string]any{
		"fiscal_code": state.Supplier.FiscalCode,
		"vat_number":  state.Supplier.VATNumber,
	}

	return outcome, nil
}
