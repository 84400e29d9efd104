package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"dispatch-service/internal/config"
)

func newTestApp(t *testing.T, store Store) *App {
	t.Helper()
	cfg := &config.Config{
		Google: config.GoogleConfig{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost:8080/oauth2callback",
		},
	}
	cfg.Server.SetDefaults()
	cfg.Schedule.SetDefaults()

	a, err := New(cfg, store, zerolog.Nop())
	require.NoError(t, err)
	return a
}

// fakeGoogle emulates the token endpoint and the calendar API, counting
// every call.
type fakeGoogle struct {
	srv *httptest.Server

	mu          sync.Mutex
	tokenCalls  int
	createCalls int
	updateCalls int
	deleteCalls int
	listCalls   int
	failToken   bool
	failEvents  bool
	lastAuth    string
	lastEvent   map[string]any
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{}
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.tokenCalls++
		fail := f.failToken
		f.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "fresh-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	mux.HandleFunc("/calendars/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastAuth = r.Header.Get("Authorization")
		if f.failEvents {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]any{"code": 500}})
			return
		}
		switch r.Method {
		case http.MethodPost:
			f.createCalls++
			f.lastEvent = map[string]any{}
			_ = json.NewDecoder(r.Body).Decode(&f.lastEvent)
			writeJSON(w, http.StatusOK, map[string]any{"id": "evt-1"})
		case http.MethodPut:
			f.updateCalls++
			writeJSON(w, http.StatusOK, map[string]any{"id": "evt-1"})
		case http.MethodDelete:
			f.deleteCalls++
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/users/me/calendarList", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.listCalls++
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": "primary-cal", "summary": "Hauptkalender", "primary": true},
				{"id": "work-cal", "summary": "Fahrten"},
			},
		})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

type fakeCounts struct {
	Token, Create, Update, Delete, List int
}

func (f *fakeGoogle) snap() fakeCounts {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeCounts{
		Token:  f.tokenCalls,
		Create: f.createCalls,
		Update: f.updateCalls,
		Delete: f.deleteCalls,
		List:   f.listCalls,
	}
}

func (f *fakeGoogle) authHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

func (f *fakeGoogle) eventBody() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastEvent
}

func (f *fakeGoogle) setFailToken(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failToken = v
}

func (f *fakeGoogle) setFailEvents(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failEvents = v
}

// install points the app's OAuth and calendar clients at the fake.
func (f *fakeGoogle) install(a *App) {
	a.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:  f.srv.URL + "/auth",
		TokenURL: f.srv.URL + "/token",
	}
	a.calendarEndpoint = f.srv.URL
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func linkedCredential(accountID string, expiresAt time.Time) *Credential {
	return &Credential{
		AccountID:    accountID,
		AccessToken:  "stored-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    expiresAt,
	}
}

func selectedCalendar(store *memStore, accountID, calendarID string) {
	store.calendars[accountID] = map[string]*CalendarRef{
		calendarID: {
			AccountID:    accountID,
			CalendarID:   calendarID,
			CalendarName: "Fahrten",
			IsSelected:   true,
		},
	}
}

func strptr(s string) *string { return &s }
