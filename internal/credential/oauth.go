// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/fitbit"

	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

var (
	// ErrNoRefreshToken is returned by Refresh when the live credential
	// cannot be refreshed.
	ErrNoRefreshToken = errors.New("credential has no refresh token")

	// ErrExchangeFailed wraps token endpoint failures.
	ErrExchangeFailed = errors.New("token exchange failed")
)

// OAuthConfig configures the authorization-code flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// AuthURL and TokenURL default to the Fitbit endpoints.
	AuthURL  string
	TokenURL string

	// StateTTL defaults to DefaultStateTTL.
	StateTTL time.Duration

	// HTTPClient is used for token requests. nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// Manager runs the authorization-code flow and refreshes the credential.
// Every token it obtains is written to the Store and, when a Persister is
// configured, saved for the next start.
type Manager struct {
	oauth      *oauth2.Config
	states     *stateStore
	store      *Store
	persister  Persister
	encryptor  *Encryptor
	httpClient *http.Client
	now        func() time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithPersister saves every new credential through p, sealed with enc.
func WithPersister(p Persister, enc *Encryptor) ManagerOption {
	return func(m *Manager) {
		m.persister = p
		m.encryptor = enc
	}
}

// NewManager creates a Manager writing to store.
func NewManager(cfg OAuthConfig, store *Store, opts ...ManagerOption) *Manager {
	endpoint := fitbit.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	m := &Manager{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		states:     newStateStore(cfg.StateTTL),
		store:      store,
		httpClient: cfg.HTTPClient,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AuthorizationURL starts a new authorization and returns the URL the user
// must visit. The state is valid once, for StateTTL.
func (m *Manager) AuthorizationURL(ctx context.Context) (string, error) {
	verifier := oauth2.GenerateVerifier()
	state, err := m.states.put(verifier)
	if err != nil {
		return "", err
	}
	logging.Ctx(ctx).Debug().Msg("Starting OAuth authorization")
	return m.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// HandleCallback validates state, exchanges code for a token and installs
// the resulting credential.
func (m *Manager) HandleCallback(ctx context.Context, state, code string) (models.Credential, error) {
	verifier, err := m.states.take(state)
	if err != nil {
		return models.Credential{}, err
	}
	if code == "" {
		return models.Credential{}, fmt.Errorf("%w: missing authorization code", ErrExchangeFailed)
	}

	tok, err := m.oauth.Exchange(m.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return models.Credential{}, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	cred := m.fromToken(tok, "")
	if err := m.install(ctx, cred); err != nil {
		return models.Credential{}, err
	}

	logging.Ctx(ctx).Info().
		Str("subject_id", cred.SubjectID).
		Time("expiry", cred.Expiry).
		Msg("OAuth authorization completed")
	return cred, nil
}

// Refresh exchanges the live refresh token for a new credential.
func (m *Manager) Refresh(ctx context.Context) (models.Credential, error) {
	current, err := m.store.Current()
	if err != nil {
		return models.Credential{}, err
	}
	if current.RefreshToken == "" {
		return models.Credential{}, ErrNoRefreshToken
	}

	// An expired token forces the source to hit the token endpoint.
	src := m.oauth.TokenSource(m.clientContext(ctx), &oauth2.Token{
		RefreshToken: current.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := src.Token()
	if err != nil {
		metrics.RecordCredentialRefresh("failure")
		return models.Credential{}, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	cred := m.fromToken(tok, current.SubjectID)
	if err := m.install(ctx, cred); err != nil {
		metrics.RecordCredentialRefresh("failure")
		return models.Credential{}, err
	}
	metrics.RecordCredentialRefresh("success")
	return cred, nil
}

// Persist saves the live credential, for example after its subject id was
// filled in. It is a no-op without a Persister.
func (m *Manager) Persist(ctx context.Context) error {
	if m.persister == nil {
		return nil
	}
	c, err := m.store.Current()
	if err != nil {
		return err
	}
	return Save(ctx, m.persister, m.encryptor, c)
}

func (m *Manager) install(ctx context.Context, c models.Credential) error {
	m.store.Set(c)
	if m.persister == nil {
		return nil
	}
	if err := Save(ctx, m.persister, m.encryptor, c); err != nil {
		// The in-memory credential is still usable.
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to persist credential")
		return err
	}
	return nil
}

func (m *Manager) clientContext(ctx context.Context) context.Context {
	if m.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// fromToken converts an oauth2 token. The upstream returns the subject id as
// the user_id extra; fallbackSubject is kept when it is absent.
func (m *Manager) fromToken(tok *oauth2.Token, fallbackSubject string) models.Credential {
	c := models.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		SubjectID:    fallbackSubject,
		Expiry:       tok.Expiry,
		IssuedAt:     m.now().UTC(),
	}
	if uid, ok := tok.Extra("user_id").(string); ok && uid != "" {
		c.SubjectID = uid
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		c.Scopes = strings.Fields(scope)
	}
	if c.Expiry.IsZero() {
		c.Expiry = tokenExpiry(tok.AccessToken)
	}
	return c
}

// tokenExpiry reads the exp claim of a JWT access token without verifying
// it. Opaque tokens yield the zero time.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
