package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/finconsol/internal/consol"
)

// Scenario selects the planning basis shown on the dashboard.
type Scenario string

const (
	ScenarioActual   Scenario = "Actual"
	ScenarioBudget   Scenario = "Budget"
	ScenarioForecast Scenario = "Forecast"
)

// View names a workspace screen.
type View string

const (
	ViewDashboard     View = "dashboard"
	ViewIngestion     View = "ingestion"
	ViewAdjustments   View = "adjustments"
	ViewConsolidation View = "consolidation"
	ViewVariance      View = "variance"
	ViewReports       View = "reports"
	ViewSettings      View = "settings"
)

var views = []View{ViewDashboard, ViewIngestion, ViewAdjustments, ViewConsolidation, ViewVariance, ViewReports, ViewSettings}

// ParseView resolves a workspace screen by name.
func ParseView(raw string) (View, error) {
	value := View(strings.ToLower(strings.TrimSpace(raw)))
	for _, v := range views {
		if v == value {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown view %q", ErrInvalidState, raw)
}

// DefaultFiscalYear is the fiscal year the dataset covers.
const DefaultFiscalYear = 2024

// State is the persisted workspace selection of a session.
type State struct {
	FiscalYear int             `json:"fiscal_year" validate:"required,gte=2000,lte=2100"`
	Scenario   Scenario        `json:"scenario" validate:"required,oneof=Actual Budget Forecast"`
	Currency   consol.Currency `json:"currency" validate:"required,oneof=HKD Local"`
	View       View            `json:"view" validate:"required,oneof=dashboard ingestion adjustments consolidation variance reports settings"`
	Expanded   []string        `json:"expanded" validate:"dive,required"`
}

// ErrInvalidState wraps validation failures of a workspace state.
var ErrInvalidState = errors.New("analytics: invalid workspace state")

var validate = validator.New()

// DefaultState opens on the dashboard with the budget scenario in HKD.
func DefaultState(expanded []string) State {
	return State{
		FiscalYear: DefaultFiscalYear,
		Scenario:   ScenarioBudget,
		Currency:   consol.CurrencyHKD,
		View:       ViewDashboard,
		Expanded:   append([]string{}, expanded...),
	}
}

// Validate checks every field against its allowed values.
func (s State) Validate() error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidState, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return nil
}

// Snapshot serialises the state after validating it.
func (s State) Snapshot() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Restore decodes and validates a snapshot produced by Snapshot.
func Restore(raw []byte) (State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if s.Expanded == nil {
		s.Expanded = []string{}
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// ValidateSession checks a session key before it is used in a cache key.
func ValidateSession(session string) error {
	if err := validate.Var(session, "required,max=64,alphanum|uuid"); err != nil {
		return fmt.Errorf("%w: session %q", ErrInvalidState, session)
	}
	return nil
}
