// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

/*
Package credential owns the single OAuth2 bearer credential used for every
upstream call.

# Components

  - Store: lock-free holder of the live credential. Readers always see a
    complete value, either the old one or the new one.
  - Manager: authorization-code flow with PKCE and state validation, token
    exchange and refresh through golang.org/x/oauth2.
  - Refresher: supervised service that refreshes the credential shortly
    before it expires.
  - Encryptor: AES-256-GCM with an HKDF-derived key for tokens at rest.

# Usage

	store := credential.NewStore()
	mgr := credential.NewManager(credential.OAuthConfig{
	    ClientID:     cfg.Fitbit.ClientID,
	    ClientSecret: cfg.Fitbit.ClientSecret,
	    RedirectURL:  cfg.Fitbit.RedirectURL,
	    Scopes:       cfg.Fitbit.Scopes,
	}, store)

	authURL, err := mgr.AuthorizationURL(ctx)
	// ... user authorizes, upstream redirects back with code and state
	cred, err := mgr.HandleCallback(ctx, state, code)

A Store that was never set returns ErrNoCredential from Current.
*/
package credential
