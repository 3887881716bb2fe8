// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/sleepsight/internal/archive"
	"github.com/tomtom215/sleepsight/internal/config"
	"github.com/tomtom215/sleepsight/internal/credential"
	"github.com/tomtom215/sleepsight/internal/database"
	"github.com/tomtom215/sleepsight/internal/events"
	"github.com/tomtom215/sleepsight/internal/fitbit"
	"github.com/tomtom215/sleepsight/internal/ingest"
	"github.com/tomtom215/sleepsight/internal/kvstore"
	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/pgstore"
)

// RecordStore is a record/subject store backend.
type RecordStore interface {
	ingest.Store
	Ping(ctx context.Context) error
	Close() error
}

// Options select the optional components.
type Options struct {
	// Events creates the in-process bus; the orchestrator publishes to it.
	Events bool
}

// App holds the wired components shared by cmd/server and cmd/sleepsight.
type App struct {
	Config       *config.Config
	Store        RecordStore
	Credentials  *credential.Store
	Encryptor    *credential.Encryptor
	OAuth        *credential.Manager // nil when no OAuth client is configured
	Client       *fitbit.Client
	Fetcher      *fitbit.BreakerClient
	Bus          *events.Bus // nil unless Options.Events
	Orchestrator *ingest.Orchestrator

	credentialKV *kvstore.Store
	badgerStores map[string]*kvstore.Store
	closers      []func() error
}

// New opens the stores, restores the persisted credential and builds the
// upstream client and orchestrator. On error everything opened so far is
// closed.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	a := &App{
		Config:       cfg,
		Credentials:  credential.NewStore(),
		badgerStores: make(map[string]*kvstore.Store),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Encryptor, err = credential.NewEncryptor(cfg.Credential.EncryptionKey)
	if err != nil {
		return nil, err
	}
	if !a.Encryptor.Enabled() {
		logging.Warn().Msg("CREDENTIAL_ENCRYPTION_KEY is not set; tokens are stored in plaintext")
	}

	if a.Store, err = a.openRecordStore(ctx); err != nil {
		return nil, err
	}

	if err := a.restoreCredential(ctx); err != nil {
		return nil, err
	}

	if cfg.OAuthEnabled() {
		var mopts []credential.ManagerOption
		if a.credentialKV != nil {
			mopts = append(mopts, credential.WithPersister(a.credentialKV, a.Encryptor))
		}
		a.OAuth = credential.NewManager(credential.OAuthConfig{
			ClientID:     cfg.Fitbit.ClientID,
			ClientSecret: cfg.Fitbit.ClientSecret,
			RedirectURL:  cfg.Fitbit.RedirectURL,
			Scopes:       cfg.Fitbit.Scopes,
			AuthURL:      cfg.Fitbit.AuthURL,
			TokenURL:     cfg.Fitbit.TokenURL,
		}, a.Credentials, mopts...)
	}

	a.Client = fitbit.NewClient(fitbit.ClientConfig{
		BaseURL:         cfg.Fitbit.APIBaseURL,
		Timeout:         cfg.Fitbit.RequestTimeout,
		RequestsPerHour: cfg.Fitbit.RequestsPerHour,
		Burst:           cfg.Fitbit.Burst,
		MaxRetries:      cfg.Fitbit.MaxRetries,
		RetryBaseDelay:  cfg.Fitbit.RetryBaseDelay,
	})
	a.Fetcher = fitbit.NewBreakerClient(a.Client, fitbit.BreakerConfig{})

	iopts := []ingest.Option{
		ingest.WithEncryptor(a.Encryptor),
		ingest.WithCredentialSaver(a.saveCredential),
	}
	if cfg.Archive.Enabled {
		arc, err := archive.New(ctx, cfg.Archive)
		if err != nil {
			return nil, err
		}
		iopts = append(iopts, ingest.WithArchiver(arc))
		logging.Info().Str("endpoint", cfg.Archive.Endpoint).Str("bucket", cfg.Archive.Bucket).Msg("Raw archive enabled")
	}
	if opts.Events {
		a.Bus = events.NewBus()
		a.closers = append(a.closers, a.Bus.Close)
		iopts = append(iopts, ingest.WithPublisher(a.Bus))
	}

	a.Orchestrator = ingest.New(ingest.Config{
		Concurrency:  cfg.Ingest.Concurrency,
		MaxRangeDays: cfg.Ingest.MaxRangeDays,
		DayTimeout:   cfg.Ingest.DayTimeout,
	}, a.Credentials, a.Fetcher, a.Store, iopts...)

	return a, nil
}

func (a *App) openRecordStore(ctx context.Context) (RecordStore, error) {
	cfg := a.Config.Database
	switch cfg.Backend {
	case config.BackendDuckDB:
		db, err := database.New(&cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return db, nil
	case config.BackendPostgres:
		pg, err := pgstore.New(ctx, cfg.PostgresDSN, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		return pg, nil
	case config.BackendBadger:
		kv, err := a.openBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Backend)
	}
}

// openBadger opens path once; later calls return the same store.
func (a *App) openBadger(path string) (*kvstore.Store, error) {
	if s, ok := a.badgerStores[path]; ok {
		return s, nil
	}
	s, err := kvstore.Open(path)
	if err != nil {
		return nil, err
	}
	a.badgerStores[path] = s
	a.closers = append(a.closers, s.Close)
	return s, nil
}

func (a *App) restoreCredential(ctx context.Context) error {
	if !a.Config.Credential.Persist {
		return nil
	}
	kv, err := a.openBadger(a.Config.Credential.StorePath)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	a.credentialKV = kv

	ok, err := credential.Restore(ctx, a.Credentials, kv, a.Encryptor)
	if err != nil {
		// A credential sealed with another key is unusable; start unauthorized.
		if errors.Is(err, credential.ErrDecryptionFailed) {
			logging.Warn().Err(err).Msg("Persisted credential cannot be decrypted; authorize again")
			return nil
		}
		return fmt.Errorf("restore credential: %w", err)
	}
	if ok {
		logging.Info().Msg("Restored persisted credential")
	}
	return nil
}

// saveCredential persists the live credential after profile ingestion
// fills in its subject id.
func (a *App) saveCredential(ctx context.Context) error {
	if a.OAuth != nil {
		return a.OAuth.Persist(ctx)
	}
	if a.credentialKV == nil {
		return nil
	}
	c, err := a.Credentials.Current()
	if err != nil {
		return err
	}
	return credential.Save(ctx, a.credentialKV, a.Encryptor, c)
}

// Refresher returns the background credential refresher, or nil without
// an OAuth client.
func (a *App) Refresher() *credential.Refresher {
	if a.OAuth == nil {
		return nil
	}
	return credential.NewRefresher(a.OAuth, a.Credentials, a.Config.Credential.RefreshInterval, a.Config.Credential.RefreshLeeway)
}

// GarbageCollectors returns one value log collector per open Badger store.
func (a *App) GarbageCollectors() []*kvstore.GarbageCollector {
	out := make([]*kvstore.GarbageCollector, 0, len(a.badgerStores))
	for path, s := range a.badgerStores {
		out = append(out, kvstore.NewGarbageCollector(s, path, kvstore.DefaultGCInterval))
	}
	return out
}

// Close releases everything in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
