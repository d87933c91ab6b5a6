// Package profile holds the user and financial-profile records the client
// caches for the duration of a session.
package profile

import (
	"strings"

	"github.com/pkg/errors"
)

// Canonical risk appetite labels as the backend stores them.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"

	// DefaultRiskAppetite is used when the field is absent or blank.
	DefaultRiskAppetite = RiskMedium
)

// User is the read-only cached copy of the backend's user record.
type User struct {
	ID         int64
	Name       string
	Email      string
	HasProfile bool
	Profile    *Profile
}

// Profile is the financial-intake record.
type Profile struct {
	DateOfBirth            string
	MonthlyIncome          float64
	MonthlyExpenses        float64
	RiskAppetite           string
	InvestmentHorizonYears int
	FinancialGoals         []string
}

var riskLabels = map[string]string{
	"low":    RiskLow,
	"medium": RiskMedium,
	"high":   RiskHigh,
}

// NormalizeRiskAppetite maps a free-form risk label to its canonical casing.
// Blank input falls back to the default; anything else unrecognized is an
// error, since the backend's advisor rejects unknown labels later.
func NormalizeRiskAppetite(label string) (string, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return DefaultRiskAppetite, nil
	}
	canonical, ok := riskLabels[strings.ToLower(trimmed)]
	if !ok {
		return "", errors.Errorf("invalid risk appetite %q: must be one of Low, Medium, High", trimmed)
	}
	return canonical, nil
}
