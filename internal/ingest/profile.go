// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/sleepsight/internal/fitbit"
	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

// ProfileCall is the call name reported for profile ingestion.
const ProfileCall = "Profile"

// IngestProfile enrolls the credential's subject. An already-enrolled
// subject is never modified; the result then has Success=false and names
// the existing subject.
//
// Upstream, parse and store failures are returned as errors together with a
// failed result.
func (o *Orchestrator) IngestProfile(ctx context.Context) (*models.ProfileResult, error) {
	cred, err := o.creds.Current()
	if err != nil {
		return nil, err
	}
	log := logging.Ctx(ctx)

	// Known subject: skip the upstream call entirely.
	if cred.SubjectID != "" {
		existing, err := o.lookupSubject(ctx, cred.SubjectID)
		if err != nil {
			return o.profileFailed(err)
		}
		if existing != nil {
			return profileExists(existing), nil
		}
	}

	body, err := o.fetcher.Fetch(ctx, models.CategoryProfile, models.Date{}, cred.AccessToken)
	if err != nil {
		return o.profileFailed(err)
	}
	user, err := fitbit.ParseProfile(body)
	if err != nil {
		return o.profileFailed(err)
	}

	if o.creds.SetSubjectID(user.EncodedID) && o.saveCredential != nil {
		if err := o.saveCredential(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to persist credential subject id")
		}
	}

	unlock := o.locks.Lock("subject/" + user.EncodedID)
	defer unlock()

	existing, err := o.lookupSubject(ctx, user.EncodedID)
	if err != nil {
		return o.profileFailed(err)
	}
	if existing != nil {
		return profileExists(existing), nil
	}

	token, err := o.encryptor.Encrypt(cred.AccessToken)
	if err != nil {
		return o.profileFailed(fmt.Errorf("seal subject token: %w", err))
	}

	subject := &models.Subject{
		ExternalID:  user.EncodedID,
		Name:        user.Name(),
		Age:         user.Age,
		Gender:      user.Gender,
		DateOfBirth: user.DateOfBirth,
		Token:       token,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.store.InsertSubject(ctx, subject); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			if existing, lookupErr := o.lookupSubject(ctx, user.EncodedID); lookupErr == nil && existing != nil {
				return profileExists(existing), nil
			}
			return profileExists(subject), nil
		}
		return o.profileFailed(fmt.Errorf("%w: insert subject %s: %w", ErrStore, user.EncodedID, err))
	}

	if o.publisher != nil {
		if err := o.publisher.PublishSubjectEnrolled(ctx, subject); err != nil {
			log.Warn().Err(err).Str("subject_id", subject.ExternalID).Msg("Failed to publish enrollment event")
		}
	}

	metrics.SubjectsEnrolledTotal.WithLabelValues("enrolled").Inc()
	log.Info().Str("subject_id", subject.ExternalID).Msg("Subject enrolled")

	result := &models.ProfileResult{
		Call:    ProfileCall,
		Success: true,
		Message: subject.Name + " enrolled.",
		Subject: subject,
	}
	return result, nil
}

// lookupSubject returns nil, nil for unknown subjects.
func (o *Orchestrator) lookupSubject(ctx context.Context, externalID string) (*models.Subject, error) {
	s, err := o.store.GetSubject(ctx, externalID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get subject %s: %w", ErrStore, externalID, err)
	}
	return s, nil
}

func (o *Orchestrator) profileFailed(err error) (*models.ProfileResult, error) {
	metrics.SubjectsEnrolledTotal.WithLabelValues("failed").Inc()
	return &models.ProfileResult{Call: ProfileCall, Success: false, Message: err.Error()}, err
}

func profileExists(s *models.Subject) *models.ProfileResult {
	metrics.SubjectsEnrolledTotal.WithLabelValues("exists").Inc()
	return &models.ProfileResult{
		Call:    ProfileCall,
		Success: false,
		Message: s.Name + " already exists.",
		Subject: s,
	}
}
