package steps

import (
	"context"
	"fmt"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/verification"
)

// WhiteListInsurance checks the anti-mafia white-list registration and the
// insurance coverage expiry held on the supplier record. The whole step is
// skipped when the run options exclude it.
type WhiteListInsurance struct {
	deps *Dependencies
}

func NewWhiteListInsurance(deps *Dependencies) *WhiteListInsurance {
	return &WhiteListInsurance{deps: deps}
}

func (s *WhiteListInsurance) Key() string {
	return models.StepWhiteListInsurance
}

func (s *WhiteListInsurance) Name() string {
	return "White-list and insurance check"
}

func (s *WhiteListInsurance) Execute(_ context.Context, state *ExecutionState) (*Outcome, error) {
	if !state.Options.IncludeWhiteList {
		return skip("white-list check excluded by run options"), nil
	}

	if state.Supplier == nil {
		return fail("supplier record unavailable for white-list check"), nil
	}

	issues := make([]string, 0)

	if !state.Supplier.WhiteListed {
		issues = append(issues, "supplier is not registered on the prefecture white list")
	}

	insuranceValid := false

	switch expiry := state.Supplier.InsuranceExpiry; expiry {
	case "":
		issues = append(issues, "no insurance coverage on record")
	default:
		parsed, err := verification.ParseDate(expiry)
		switch {
		case err != nil:
			issues = append(issues, fmt.Sprintf("insurance expiry %q is not a valid date", expiry))
		case !parsed.After(s.deps.nowOrDefault()):
			issues = append(issues, fmt.Sprintf("insurance coverage expired on %s", parsed.Format("02/01/2006")))
		default:
			insuranceValid = true
		}
	}

	if len(issues) > 0 {
		return fail(issues...), nil
	}

	outcome := pass()
	outcome.Details = map[string]any{
		"white_listed":    state.Supplier.WhiteListed,
		"insurance_valid": insuranceValid,
	}

	return outcome, nil
}
