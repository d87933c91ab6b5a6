// Package session orchestrates login, signup, logout and session bootstrap
// against the backend, and exposes the current user state to the rest of the
// application.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/Nishanth456/FinAdvisor/api"
	"github.com/Nishanth456/FinAdvisor/profile"
	"github.com/Nishanth456/FinAdvisor/tokenstore"
	"github.com/Nishanth456/FinAdvisor/transport"
)

// Route tells the embedding view layer where to navigate after an operation.
type Route string

const (
	RouteLogin        Route = "login"
	RouteProfileSetup Route = "profile-setup"
	RouteDashboard    Route = "dashboard"
)

// Result is the structured outcome of a session operation. Failures come
// back here rather than as panics so the view can render inline messaging.
type Result struct {
	Success      bool
	ShouldSignup bool
	Route        Route
	Err          error
}

// State is a snapshot of the session for rendering.
type State struct {
	CurrentUser *profile.User
	Token       string
	TokenExpiry time.Time
	IsLoading   bool
	LastError   error
}

// Manager owns the token slot and the cached user for one session. Network
// calls within an operation are strictly sequential; the mutex only guards
// the cached slots against concurrent readers.
type Manager struct {
	client *transport.Client
	store  tokenstore.Store
	oauth  *oauth2.Config
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	user    *profile.User
	lastErr error
	loading bool
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = nowFunc
	}
}

// WithLogger sets the logger for session events.
func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = l
	}
}

// NewManager initializes a Manager with required dependencies.
func NewManager(client *transport.Client, store tokenstore.Store, options ...ManagerOption) (*Manager, error) {
	if client == nil {
		return nil, errors.New("[NewManager] transport client is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] token store is required")
	}

	m := &Manager{
		client: client,
		store:  store,
		// The backend's /token endpoint is a plain resource-owner
		// password grant with no client credentials.
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  client.BaseURL(api.TokenPath),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		log: zerolog.Nop(),
		now: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// State returns the current session snapshot. TokenExpiry is read from the
// token's exp claim without verifying the signature; verification is the
// backend's job, the expiry is only advisory for the UI.
func (m *Manager) State() State {
	m.mu.Lock()
	st := State{
		CurrentUser: m.user,
		IsLoading:   m.loading,
		LastError:   m.lastErr,
	}
	m.mu.Unlock()

	token, err := m.store.Get()
	if err != nil {
		return st
	}
	st.Token = token

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		st.TokenExpiry = claims.ExpiresAt.Time
	}
	return st
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *Manager) setUser(u *profile.User) {
	m.mu.Lock()
	m.user = u
	m.mu.Unlock()
}

// failure records and logs err and wraps it in a Result.
func (m *Manager) failure(op string, err error) Result {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	m.log.Error().Err(err).Str("op", op).Msg("session operation failed")
	return Result{Err: err}
}

func (m *Manager) clearError() {
	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
}

// fetchUser loads the current user document over the authenticated transport.
func (m *Manager) fetchUser(ctx context.Context) (*profile.User, error) {
	req, err := transport.NewJSONRequest(http.MethodGet, api.MePath, nil)
	if err != nil {
		return nil, err
	}
	var me api.MeResponse
	if err := m.client.DoJSON(ctx, req, &me); err != nil {
		return nil, err
	}

	user := &profile.User{
		ID:         me.ID,
		Name:       me.Name,
		Email:      me.Email,
		HasProfile: me.HasProfile,
	}
	if me.Profile != nil {
		user.Profile = &profile.Profile{
			DateOfBirth:            me.Profile.DateOfBirth,
			MonthlyIncome:          me.Profile.MonthlyIncome,
			MonthlyExpenses:        me.Profile.MonthlyExpenses,
			RiskAppetite:           me.Profile.RiskAppetite,
			InvestmentHorizonYears: me.Profile.InvestmentHorizonYears,
			FinancialGoals:         me.Profile.FinancialGoals,
		}
	}
	return user, nil
}

// routeFor picks the post-authentication destination.
func routeFor(user *profile.User) Route {
	if user.HasProfile {
		return RouteDashboard
	}
	return RouteProfileSetup
}
