package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/Nishanth456/FinAdvisor/api"
	apierrors "github.com/Nishanth456/FinAdvisor/internal/errors"
	"github.com/Nishanth456/FinAdvisor/profile"
	"github.com/Nishanth456/FinAdvisor/tokenstore"
	"github.com/Nishanth456/FinAdvisor/transport"
)

// Bootstrap validates any persisted token on startup. A valid token yields
// the cached user and the post-login route; an authorization failure clears
// the token and routes to login; other failures leave the token in place,
// treated as transient.
func (m *Manager) Bootstrap(ctx context.Context) Result {
	m.setLoading(true)
	defer m.setLoading(false)

	if _, err := m.store.Get(); err != nil {
		if apierrors.Is(err, tokenstore.ErrNoToken) {
			return Result{Success: true, Route: RouteLogin}
		}
		return m.failure("bootstrap", apierrors.Request(err, "reading stored token"))
	}

	user, err := m.fetchUser(ctx)
	if err != nil {
		if apierrors.IsAuthenticationError(err) {
			if cerr := m.store.Clear(); cerr != nil {
				m.log.Error().Err(cerr).Msg("clearing rejected token")
			}
			m.setUser(nil)
			m.failure("bootstrap", err)
			return Result{Route: RouteLogin, Err: err}
		}
		return m.failure("bootstrap", err)
	}

	m.setUser(user)
	m.clearError()
	m.log.Info().Str("email", user.Email).Msg("session restored")
	return Result{Success: true, Route: routeFor(user)}
}

// Login exchanges credentials for a token. The identifier is checked for
// existence first; an unknown email yields ShouldSignup without ever calling
// the token endpoint.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	m.setLoading(true)
	defer m.setLoading(false)

	exists, err := m.checkEmail(ctx, email)
	if err != nil {
		return m.failure("login", err)
	}
	if !exists {
		m.clearError()
		return Result{ShouldSignup: true, Route: RouteLogin}
	}

	token, err := m.exchangePassword(ctx, email, password)
	if err != nil {
		return m.failure("login", err)
	}
	if err := m.store.Set(token); err != nil {
		return m.failure("login", apierrors.Request(err, "persisting token"))
	}

	user, err := m.fetchUser(ctx)
	if err != nil {
		// Token stays in place; a later Bootstrap can still succeed.
		return m.failure("login", err)
	}
	m.setUser(user)
	m.clearError()
	m.log.Info().Str("email", email).Msg("login succeeded")
	return Result{Success: true, Route: routeFor(user)}
}

// Signup creates an account, stores the issued token, and routes to the
// profile intake form.
func (m *Manager) Signup(ctx context.Context, name, email, password string) Result {
	m.setLoading(true)
	defer m.setLoading(false)

	// The backend enforces this too; checking here saves the round trip.
	if len(password) < 8 {
		return m.failure("signup", apierrors.Validation(0, "Password must be at least 8 characters long"))
	}

	req, err := transport.NewJSONRequest(http.MethodPost, api.SignupPath, api.SignupRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return m.failure("signup", err)
	}
	var resp api.SignupResponse
	if err := m.client.DoJSON(ctx, req, &resp); err != nil {
		return m.failure("signup", err)
	}
	if err := m.store.Set(resp.AccessToken); err != nil {
		return m.failure("signup", apierrors.Request(err, "persisting token"))
	}

	user, err := m.fetchUser(ctx)
	if err != nil {
		return m.failure("signup", err)
	}
	m.setUser(user)
	m.clearError()
	m.log.Info().Str("email", email).Msg("account created")
	return Result{Success: true, Route: RouteProfileSetup}
}

// Logout clears the token and the cached user. It is purely local and always
// succeeds; no server round trip is needed for the client to be logged out.
func (m *Manager) Logout() Result {
	if err := m.store.Clear(); err != nil {
		m.log.Error().Err(err).Msg("clearing token on logout")
	}
	m.setUser(nil)
	m.clearError()
	m.log.Info().Msg("logged out")
	return Result{Success: true, Route: RouteLogin}
}

// UpdateProfile normalizes the risk appetite, submits the form, and merges
// the acknowledgment into the cached user optimistically.
func (m *Manager) UpdateProfile(ctx context.Context, p profile.Profile) Result {
	m.setLoading(true)
	defer m.setLoading(false)

	normalized, err := profile.NormalizeRiskAppetite(p.RiskAppetite)
	if err != nil {
		return m.failure("update-profile", apierrors.Validation(0, err.Error()))
	}
	p.RiskAppetite = normalized

	req, err := transport.NewJSONRequest(http.MethodPost, api.ProfilePath, api.ProfilePayload{
		DateOfBirth:            p.DateOfBirth,
		MonthlyIncome:          p.MonthlyIncome,
		MonthlyExpenses:        p.MonthlyExpenses,
		RiskAppetite:           p.RiskAppetite,
		InvestmentHorizonYears: p.InvestmentHorizonYears,
		FinancialGoals:         p.FinancialGoals,
	})
	if err != nil {
		return m.failure("update-profile", err)
	}
	var ack api.ProfileUpdateResponse
	if err := m.client.DoJSON(ctx, req, &ack); err != nil {
		return m.failure("update-profile", err)
	}

	m.mu.Lock()
	if m.user != nil {
		updated := p
		m.user.HasProfile = true
		m.user.Profile = &updated
	}
	m.mu.Unlock()
	m.clearError()
	m.log.Info().Msg("profile updated")
	return Result{Success: true, Route: RouteDashboard}
}

// checkEmail asks the backend whether the identifier is registered.
func (m *Manager) checkEmail(ctx context.Context, email string) (bool, error) {
	req, err := transport.NewJSONRequest(http.MethodGet, api.CheckEmailPath, nil)
	if err != nil {
		return false, err
	}
	req.Query = url.Values{"email": {email}}

	var resp api.CheckEmailResponse
	if err := m.client.DoJSON(ctx, req, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// exchangePassword runs the resource-owner password grant against the token
// endpoint, sharing the transport's HTTP client so the refresh cookie issued
// alongside the token lands in the same jar.
func (m *Manager) exchangePassword(ctx context.Context, email, password string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.client.HTTPClient())
	token, err := m.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return "", classifyExchangeError(err)
	}
	return token.AccessToken, nil
}

func classifyExchangeError(err error) error {
	var re *oauth2.RetrieveError
	if apierrors.As(err, &re) {
		if re.Response != nil && re.Response.StatusCode == http.StatusUnauthorized {
			return apierrors.ErrInvalidCredentials
		}
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		detail := exchangeDetail(re)
		return apierrors.Validation(status, detail)
	}
	var ue *url.Error
	if apierrors.As(err, &ue) {
		return apierrors.Network(err)
	}
	return apierrors.Request(err, "token exchange could not be performed")
}

func exchangeDetail(re *oauth2.RetrieveError) string {
	if re.ErrorDescription != "" {
		return re.ErrorDescription
	}
	if detail := decodeDetail(re.Body); detail != "" {
		return detail
	}
	return strings.TrimSpace(string(re.Body))
}

func decodeDetail(body []byte) string {
	var eb api.ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return eb.Detail
}
