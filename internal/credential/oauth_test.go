// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package credential

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/sleepsight/internal/models"
)

// tokenServer fakes the upstream token endpoint.
type tokenServer struct {
	*httptest.Server

	mu       sync.Mutex
	forms    []url.Values
	status   int
	response map[string]any
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()

	ts := &tokenServer{
		status: http.StatusOK,
		response: map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "Bearer",
			"expires_in":    28800,
			"user_id":       "ABC123",
			"scope":         "sleep heartrate profile",
		},
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ts.mu.Lock()
		ts.forms = append(ts.forms, r.PostForm)
		status, body := ts.status, ts.response
		ts.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) lastForm() url.Values {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.forms) == 0 {
		return nil
	}
	return ts.forms[len(ts.forms)-1]
}

func newTestManager(t *testing.T, ts *tokenServer, opts ...ManagerOption) (*Manager, *Store) {
	t.Helper()
	store := NewStore()
	m := NewManager(OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/auth/fitbit/callback",
		Scopes:       []string{"sleep", "heartrate", "profile"},
		AuthURL:      ts.URL + "/oauth2/authorize",
		TokenURL:     ts.URL + "/oauth2/token",
		HTTPClient:   ts.Client(),
	}, store, opts...)
	return m, store
}

func TestManager_AuthorizationFlow(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t)
	p := &memPersister{}
	m, store := newTestManager(t, ts, WithPersister(p, nil))
	ctx := context.Background()

	authURL, err := m.AuthorizationURL(ctx)
	if err != nil {
		t.Fatalf("AuthorizationURL() error = %v", err)
	}
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "client" || q.Get("response_type") != "code" {
		t.Errorf("auth url query = %v", q)
	}
	if q.Get("scope") != "sleep heartrate profile" {
		t.Errorf("scope = %q", q.Get("scope"))
	}
	if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
		t.Errorf("missing PKCE challenge: %v", q)
	}
	state := q.Get("state")

	cred, err := m.HandleCallback(ctx, state, "auth-code")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if cred.AccessToken != "new-access" || cred.RefreshToken != "new-refresh" {
		t.Errorf("credential tokens = %+v", cred)
	}
	if cred.SubjectID != "ABC123" {
		t.Errorf("SubjectID = %q, want ABC123 from user_id", cred.SubjectID)
	}
	if len(cred.Scopes) != 3 {
		t.Errorf("Scopes = %v", cred.Scopes)
	}
	if cred.Expiry.IsZero() {
		t.Error("Expiry not set from expires_in")
	}

	form := ts.lastForm()
	if form.Get("code") != "auth-code" || form.Get("grant_type") != "authorization_code" {
		t.Errorf("token request form = %v", form)
	}
	sum := sha256.Sum256([]byte(form.Get("code_verifier")))
	if base64.RawURLEncoding.EncodeToString(sum[:]) != q.Get("code_challenge") {
		t.Error("code_verifier does not match the S256 challenge")
	}

	got, err := store.Current()
	if err != nil || got.AccessToken != "new-access" {
		t.Errorf("store.Current() = %+v, %v", got, err)
	}
	if p.saved == nil || p.saved.SubjectID != "ABC123" {
		t.Errorf("credential not persisted: %+v", p.saved)
	}

	// State is single use.
	if _, err := m.HandleCallback(ctx, state, "auth-code"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("replayed callback error = %v, want ErrInvalidState", err)
	}
}

func TestManager_HandleCallbackErrors(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t)
	ts.status = http.StatusUnauthorized
	ts.response = map[string]any{"errors": []map[string]string{{"errorType": "invalid_client"}}}
	m, store := newTestManager(t, ts)
	ctx := context.Background()

	if _, err := m.HandleCallback(ctx, "forged", "code"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("unknown state error = %v, want ErrInvalidState", err)
	}

	authURL, _ := m.AuthorizationURL(ctx)
	u, _ := url.Parse(authURL)
	if _, err := m.HandleCallback(ctx, u.Query().Get("state"), "code"); !errors.Is(err, ErrExchangeFailed) {
		t.Errorf("rejected exchange error = %v, want ErrExchangeFailed", err)
	}
	if _, err := store.Current(); !errors.Is(err, ErrNoCredential) {
		t.Error("failed exchange installed a credential")
	}
}

func TestManager_Refresh(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t)
	delete(ts.response, "user_id")
	m, store := newTestManager(t, ts)
	ctx := context.Background()

	if _, err := m.Refresh(ctx); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Refresh() on empty store error = %v", err)
	}

	store.Set(models.Credential{AccessToken: "old", SubjectID: "SUBJ"})
	if _, err := m.Refresh(ctx); !errors.Is(err, ErrNoRefreshToken) {
		t.Errorf("Refresh() without refresh token error = %v", err)
	}

	store.Set(models.Credential{AccessToken: "old", RefreshToken: "old-refresh", SubjectID: "SUBJ"})
	cred, err := m.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if cred.AccessToken != "new-access" || cred.SubjectID != "SUBJ" {
		t.Errorf("refreshed credential = %+v", cred)
	}
	form := ts.lastForm()
	if form.Get("grant_type") != "refresh_token" || form.Get("refresh_token") != "old-refresh" {
		t.Errorf("refresh form = %v", form)
	}
	if cur, _ := store.Current(); cur.AccessToken != "new-access" {
		t.Errorf("store not updated: %+v", cur)
	}
}

func TestTokenExpiry(t *testing.T) {
	t.Parallel()

	exp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ABC123",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}

	if got := tokenExpiry(signed); !got.Equal(exp) {
		t.Errorf("tokenExpiry(jwt) = %v, want %v", got, exp)
	}
	if got := tokenExpiry("opaque-token"); !got.IsZero() {
		t.Errorf("tokenExpiry(opaque) = %v, want zero", got)
	}
}

func TestRefresher_Check(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t)
	m, store := newTestManager(t, ts)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRefresher(m, store, time.Minute, 15*time.Minute)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	if r.check(ctx) {
		t.Error("check() refreshed with no credential")
	}

	store.Set(models.Credential{AccessToken: "old", RefreshToken: "rt", Expiry: now.Add(time.Hour)})
	if r.check(ctx) {
		t.Error("check() refreshed a credential far from expiry")
	}

	store.Set(models.Credential{AccessToken: "old", Expiry: now.Add(5 * time.Minute)})
	if r.check(ctx) {
		t.Error("check() refreshed without a refresh token")
	}

	store.Set(models.Credential{AccessToken: "old", RefreshToken: "rt", Expiry: now.Add(5 * time.Minute)})
	if !r.check(ctx) {
		t.Fatal("check() did not refresh an expiring credential")
	}
	if cur, _ := store.Current(); cur.AccessToken != "new-access" {
		t.Errorf("credential after refresh = %+v", cur)
	}
}

func TestRefresher_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t)
	m, store := newTestManager(t, ts)
	r := NewRefresher(m, store, 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.RunWithContext(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunWithContext did not return after cancel")
	}
}
