// Package api defines the wire types exchanged with the Smart Financial
// Advisor backend.
package api

import "encoding/json"

// Endpoint paths, relative to the configured base URL.
const (
	TokenPath           = "/token"
	RefreshPath         = "/refresh"
	SignupPath          = "/signup"
	MePath              = "/users/me"
	CheckEmailPath      = "/users/check-email"
	ProfilePath         = "/users/me/profile"
	RecommendationsPath = "/api/recommendations"
	GeneratePath        = "/api/recommendations/generate"
	HealthPath          = "/health"
)

// TokenResponse is returned by the token and refresh endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// SignupRequest creates a new account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResponse carries the token issued for the new account.
type SignupResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	UserID      int64  `json:"user_id"`
}

// CheckEmailResponse reports whether an email is already registered.
type CheckEmailResponse struct {
	Exists bool `json:"exists"`
}

// ProfilePayload is the financial-profile record as the backend stores it.
type ProfilePayload struct {
	DateOfBirth            string   `json:"date_of_birth"`
	MonthlyIncome          float64  `json:"monthly_income"`
	MonthlyExpenses        float64  `json:"monthly_expenses"`
	RiskAppetite           string   `json:"risk_appetite"`
	InvestmentHorizonYears int      `json:"investment_horizon_years"`
	FinancialGoals         []string `json:"financial_goals"`
}

// MeResponse is the "who am I" document.
type MeResponse struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	HasProfile bool            `json:"has_profile"`
	Profile    *ProfilePayload `json:"profile,omitempty"`
}

// ProfileUpdateResponse acknowledges a profile create/update.
type ProfileUpdateResponse struct {
	Message        string `json:"message"`
	ProfileUpdated bool   `json:"profile_updated"`
}

// RecommendationEnvelope wraps the stored recommendation snapshot.
type RecommendationEnvelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// HealthResponse is the health-check document.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorBody is the backend's structured error document. The detail field is
// usually a string, but request-validation failures send a list of objects;
// both decode into Detail.
type ErrorBody struct {
	Detail string
}

func (e *ErrorBody) UnmarshalJSON(data []byte) error {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		e.Detail = s
		return nil
	}
	e.Detail = string(body.Detail)
	return nil
}
