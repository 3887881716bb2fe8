// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/sleepsight/internal/models"
)

// Persister stores the credential across restarts. LoadCredential returns
// models.ErrNotFound when nothing has been saved.
type Persister interface {
	SaveCredential(ctx context.Context, c *models.Credential) error
	LoadCredential(ctx context.Context) (*models.Credential, error)
}

// Save encrypts the tokens of c and hands it to p.
func Save(ctx context.Context, p Persister, enc *Encryptor, c models.Credential) error {
	sealed := clone(&c)
	var err error
	if sealed.AccessToken, err = enc.Encrypt(c.AccessToken); err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	if sealed.RefreshToken, err = enc.Encrypt(c.RefreshToken); err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}
	if err := p.SaveCredential(ctx, &sealed); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// Load reads and decrypts the persisted credential. It returns
// ErrNoCredential when nothing was saved.
func Load(ctx context.Context, p Persister, enc *Encryptor) (models.Credential, error) {
	stored, err := p.LoadCredential(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return models.Credential{}, ErrNoCredential
	}
	if err != nil {
		return models.Credential{}, fmt.Errorf("load credential: %w", err)
	}

	c := clone(stored)
	if c.AccessToken, err = enc.Decrypt(stored.AccessToken); err != nil {
		return models.Credential{}, fmt.Errorf("decrypt access token: %w", err)
	}
	if c.RefreshToken, err = enc.Decrypt(stored.RefreshToken); err != nil {
		return models.Credential{}, fmt.Errorf("decrypt refresh token: %w", err)
	}
	return c, nil
}

// Restore loads the persisted credential into s. A missing credential is not
// an error; ok reports whether one was restored.
func Restore(ctx context.Context, s *Store, p Persister, enc *Encryptor) (ok bool, err error) {
	c, err := Load(ctx, p, enc)
	if errors.Is(err, ErrNoCredential) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.Set(c)
	return true, nil
}
