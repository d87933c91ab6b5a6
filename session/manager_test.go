package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apierrors "github.com/Nishanth456/FinAdvisor/internal/errors"
	"github.com/Nishanth456/FinAdvisor/profile"
	"github.com/Nishanth456/FinAdvisor/session"
	"github.com/Nishanth456/FinAdvisor/tokenstore"
	"github.com/Nishanth456/FinAdvisor/tokenstore/storefake"
	"github.com/Nishanth456/FinAdvisor/transport"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetAPIBaseURL() string         { return c.baseURL }
func (c testConfig) GetDataFolder() string         { return "" }
func (c testConfig) GetHTTPTimeout() time.Duration { return 5 * time.Second }
func (c testConfig) GetEnv() string                { return "TEST" }

func newManager(t *testing.T, baseURL string, store tokenstore.Store) *session.Manager {
	t.Helper()
	client, err := transport.New(testConfig{baseURL: baseURL}, store)
	require.NoError(t, err)
	mgr, err := session.NewManager(client, store)
	require.NoError(t, err)
	return mgr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func meDocument(hasProfile bool) map[string]any {
	doc := map[string]any{
		"id":          1,
		"name":        "Asha",
		"email":       "asha@example.com",
		"has_profile": hasProfile,
	}
	if hasProfile {
		doc["profile"] = map[string]any{
			"date_of_birth":            "1990-01-01",
			"monthly_income":           90000.0,
			"monthly_expenses":         40000.0,
			"risk_appetite":            "Medium",
			"investment_horizon_years": 10,
			"financial_goals":          []string{"Retirement"},
		}
	}
	return doc
}

func TestManager_Login(t *testing.T) {
	t.Run("unknown email signals signup without touching the token endpoint", func(t *testing.T) {
		var tokenCalls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/users/check-email":
				writeJSON(w, http.StatusOK, map[string]bool{"exists": false})
			case "/token":
				atomic.AddInt32(&tokenCalls, 1)
				writeJSON(w, http.StatusInternalServerError, nil)
			}
		}))
		defer server.Close()

		store := storefake.NewFakeStore()
		mgr := newManager(t, server.URL, store)

		res := mgr.Login(context.Background(), "new@user.test", "x")
		require.False(t, res.Success)
		require.True(t, res.ShouldSignup)
		require.NoError(t, res.Err)
		require.Equal(t, int32(0), atomic.LoadInt32(&tokenCalls))
		_, err := store.Get()
		require.ErrorIs(t, err, tokenstore.ErrNoToken)
	})

	t.Run("successful login stores the token and routes to the dashboard", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/users/check-email":
				require.Equal(t, "asha@example.com", r.URL.Query().Get("email"))
				writeJSON(w, http.StatusOK, map[string]bool{"exists": true})
			case "/token":
				require.NoError(t, r.ParseForm())
				require.Equal(t, "asha@example.com", r.PostFormValue("username"))
				require.Equal(t, "hunter22", r.PostFormValue("password"))
				writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-login", "token_type": "bearer"})
			case "/users/me":
				require.Equal(t, "Bearer tok-login", r.Header.Get("Authorization"))
				writeJSON(w, http.StatusOK, meDocument(true))
			}
		}))
		defer server.Close()

		store := storefake.NewFakeStore()
		mgr := newManager(t, server.URL, store)

		res := mgr.Login(context.Background(), "asha@example.com", "hunter22")
		require.NoError(t, res.Err)
		require.True(t, res.Success)
		require.Equal(t, session.RouteDashboard, res.Route)

		token, err := store.Get()
		require.NoError(t, err)
		require.Equal(t, "tok-login", token)

		st := mgr.State()
		require.NotNil(t, st.CurrentUser)
		require.Equal(t, "asha@example.com", st.CurrentUser.Email)
	})

	t.Run("incomplete profile routes to profile setup", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/users/check-email":
				writeJSON(w, http.StatusOK, map[string]bool{"exists": true})
			case "/token":
				writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok", "token_type": "bearer"})
			case "/users/me":
				writeJSON(w, http.StatusOK, meDocument(false))
			}
		}))
		defer server.Close()

		mgr := newManager(t, server.URL, storefake.NewFakeStore())
		res := mgr.Login(context.Background(), "asha@example.com", "hunter22")
		require.True(t, res.Success)
		require.Equal(t, session.RouteProfileSetup, res.Route)
	})

	t.Run("invalid credentials come back as an authentication failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/users/check-email":
				writeJSON(w, http.StatusOK, map[string]bool{"exists": true})
			case "/token":
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
			}
		}))
		defer server.Close()

		store := storefake.NewFakeStore()
		mgr := newManager(t, server.URL, store)

		res := mgr.Login(context.Background(), "asha@example.com", "wrong")
		require.False(t, res.Success)
		require.ErrorIs(t, res.Err, apierrors.ErrInvalidCredentials)
		_, err := store.Get()
		require.ErrorIs(t, err, tokenstore.ErrNoToken)
	})

	t.Run("unreachable backend is a network failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		mgr := newManager(t, server.URL, storefake.NewFakeStore())
		res := mgr.Login(context.Background(), "asha@example.com", "hunter22")
		require.True(t, apierrors.IsNetworkError(res.Err))
	})
}

func TestManager_Signup(t *testing.T) {
	t.Run("creates the account and routes to profile setup", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/signup":
				var req map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				require.Equal(t, "Asha", req["name"])
				writeJSON(w, http.StatusOK, map[string]any{"access_token": "tok-new", "token_type": "bearer", "user_id": 7})
			case "/users/me":
				require.Equal(t, "Bearer tok-new", r.Header.Get("Authorization"))
				writeJSON(w, http.StatusOK, meDocument(false))
			}
		}))
		defer server.Close()

		store := storefake.NewFakeStore()
		mgr := newManager(t, server.URL, store)

		res := mgr.Signup(context.Background(), "Asha", "asha@example.com", "longenough")
		require.True(t, res.Success)
		require.Equal(t, session.RouteProfileSetup, res.Route)

		token, err := store.Get()
		require.NoError(t, err)
		require.Equal(t, "tok-new", token)
	})

	t.Run("short passwords are rejected locally", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		}))
		defer server.Close()

		mgr := newManager(t, server.URL, storefake.NewFakeStore())
		res := mgr.Signup(context.Background(), "Asha", "asha@example.com", "short")
		require.True(t, apierrors.IsValidationError(res.Err))
		require.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("duplicate email surfaces the backend detail verbatim", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		}))
		defer server.Close()

		mgr := newManager(t, server.URL, storefake.NewFakeStore())
		res := mgr.Signup(context.Background(), "Asha", "asha@example.com", "longenough")
		require.True(t, apierrors.IsValidationError(res.Err))
		require.Equal(t, "Email already registered", apierrors.UserMessage(res.Err))
	})
}

func TestManager_Bootstrap(t *testing.T) {
	t.Run("no stored token routes straight to login", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		}))
		defer server.Close()

		mgr := newManager(t, server.URL, storefake.NewFakeStore())
		res := mgr.Bootstrap(context.Background())
		require.True(t, res.Success)
		require.Equal(t, session.RouteLogin, res.Route)
		require.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("valid token restores the session", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/users/me", r.URL.Path)
			require.Equal(t, "Bearer saved", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, meDocument(true))
		}))
		defer server.Close()

		store := storefake.NewFakeStore()
		require.NoError(t, store.Set("saved"))
		mgr := newManager(t, server.URL, store)

		res := mgr.Bootstrap(context.Background())
		require.True(t, res.Success)
		require.Equal(t, session.RouteDashboard, res.Route)
		require.NotNil(t, mgr.State().CurrentUser)
	})

	t.Run("rejected token is cleared and routes to login", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/users/me":
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			case "/refresh":
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "no session"})
			}
		}))
		defer server.Close()

		store := storefake.NewFakeStore()
		require.NoError(t, store.Set("expired"))
		mgr := newManager(t, server.URL, store)

		res := mgr.Bootstrap(context.Background())
		require.False(t, res.Success)
		require.Equal(t, session.RouteLogin, res.Route)
		require.True(t, apierrors.IsAuthenticationError(res.Err))
		_, err := store.Get()
		require.ErrorIs(t, err, tokenstore.ErrNoToken)
	})

	t.Run("transient failures leave the token intact", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		store := storefake.NewFakeStore()
		require.NoError(t, store.Set("saved"))
		mgr := newManager(t, server.URL, store)

		res := mgr.Bootstrap(context.Background())
		require.False(t, res.Success)
		require.True(t, apierrors.IsNetworkError(res.Err))

		token, err := store.Get()
		require.NoError(t, err)
		require.Equal(t, "saved", token)
	})
}

func TestManager_Logout(t *testing.T) {
	t.Run("clears token and user without any network", func(t *testing.T) {
		// Deliberately unreachable: logout must be purely local.
		store := storefake.NewFakeStore()
		require.NoError(t, store.Set("tok"))
		mgr := newManager(t, "http://127.0.0.1:1", store)

		res := mgr.Logout()
		require.True(t, res.Success)
		require.Equal(t, session.RouteLogin, res.Route)

		_, err := store.Get()
		require.ErrorIs(t, err, tokenstore.ErrNoToken)
		require.Nil(t, mgr.State().CurrentUser)
		require.NoError(t, mgr.State().LastError)
	})
}

func TestManager_UpdateProfile(t *testing.T) {
	t.Run("normalizes risk appetite before submission", func(t *testing.T) {
		var submitted map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/users/me/profile", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated successfully", "profile_updated": true})
		}))
		defer server.Close()

		store := storefake.NewFakeStore()
		require.NoError(t, store.Set("tok"))
		mgr := newManager(t, server.URL, store)

		res := mgr.UpdateProfile(context.Background(), profile.Profile{
			DateOfBirth:     "1990-01-01",
			MonthlyIncome:   90000,
			MonthlyExpenses: 40000,
			RiskAppetite:    "  high ",
			FinancialGoals:  []string{"Retirement"},
		})
		require.True(t, res.Success)
		require.Equal(t, session.RouteDashboard, res.Route)
		require.Equal(t, "High", submitted["risk_appetite"])
	})

	t.Run("blank risk appetite defaults to Medium", func(t *testing.T) {
		var submitted map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			writeJSON(w, http.StatusOK, map[string]any{"profile_updated": true})
		}))
		defer server.Close()

		mgr := newManager(t, server.URL, storefake.NewFakeStore())
		res := mgr.UpdateProfile(context.Background(), profile.Profile{RiskAppetite: ""})
		require.True(t, res.Success)
		require.Equal(t, "Medium", submitted["risk_appetite"])
	})

	t.Run("invalid risk appetite fails before any network call", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		}))
		defer server.Close()

		mgr := newManager(t, server.URL, storefake.NewFakeStore())
		res := mgr.UpdateProfile(context.Background(), profile.Profile{RiskAppetite: "yolo"})
		require.True(t, apierrors.IsValidationError(res.Err))
		require.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("merges the acknowledgment into the cached user", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/users/me":
				writeJSON(w, http.StatusOK, meDocument(false))
			case "/users/me/profile":
				writeJSON(w, http.StatusOK, map[string]any{"profile_updated": true})
			}
		}))
		defer server.Close()

		store := storefake.NewFakeStore()
		require.NoError(t, store.Set("tok"))
		mgr := newManager(t, server.URL, store)
		require.True(t, mgr.Bootstrap(context.Background()).Success)
		require.False(t, mgr.State().CurrentUser.HasProfile)

		res := mgr.UpdateProfile(context.Background(), profile.Profile{RiskAppetite: "low"})
		require.True(t, res.Success)

		user := mgr.State().CurrentUser
		require.True(t, user.HasProfile)
		require.NotNil(t, user.Profile)
		require.Equal(t, "Low", user.Profile.RiskAppetite)
	})
}

func TestManager_State(t *testing.T) {
	t.Run("token expiry is read from the exp claim", func(t *testing.T) {
		expiry := time.Now().Add(30 * time.Minute).Truncate(time.Second)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "asha@example.com",
			ExpiresAt: jwt.NewNumericDate(expiry),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		store := storefake.NewFakeStore()
		require.NoError(t, store.Set(token))
		mgr := newManager(t, "http://127.0.0.1:1", store)

		st := mgr.State()
		require.Equal(t, token, st.Token)
		require.True(t, st.TokenExpiry.Equal(expiry))
	})

	t.Run("opaque tokens leave the expiry zero", func(t *testing.T) {
		store := storefake.NewFakeStore()
		require.NoError(t, store.Set("not-a-jwt"))
		mgr := newManager(t, "http://127.0.0.1:1", store)

		st := mgr.State()
		require.Equal(t, "not-a-jwt", st.Token)
		require.True(t, st.TokenExpiry.IsZero())
	})
}
