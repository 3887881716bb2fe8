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

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/sleepsight/internal/credential"
	"github.com/tomtom215/sleepsight/internal/fitbit"
	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

// CredentialSource supplies the live credential.
type CredentialSource interface {
	Current() (models.Credential, error)
	SetSubjectID(subjectID string) bool
}

// Archiver keeps the raw upstream body of stored records.
type Archiver interface {
	Archive(ctx context.Context, key models.RecordKey, body []byte) error
}

// Publisher announces new records and subjects.
type Publisher interface {
	PublishRecordIngested(ctx context.Context, rec *models.Record) error
	PublishSubjectEnrolled(ctx context.Context, s *models.Subject) error
}

// Config bounds range ingestion.
type Config struct {
	// Concurrency is the number of days processed in parallel.
	Concurrency int

	// MaxRangeDays rejects longer ranges with ErrInvalidRequest.
	MaxRangeDays int

	// DayTimeout bounds each store step of one day: the pre-fetch check, and
	// the re-check, archive and insert after it. The fetch is bounded by the
	// client's request timeout, so queueing for the outbound rate limit never
	// counts against it. Zero means no limit.
	DayTimeout time.Duration
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithArchiver stores raw bodies before each record insert.
func WithArchiver(a Archiver) Option {
	return func(o *Orchestrator) { o.archiver = a }
}

// WithPublisher publishes events after each insert.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithEncryptor seals subject tokens before they are stored.
func WithEncryptor(e *credential.Encryptor) Option {
	return func(o *Orchestrator) { o.encryptor = e }
}

// WithCredentialSaver is called after profile ingestion fills in the
// credential's subject id.
func WithCredentialSaver(save func(context.Context) error) Option {
	return func(o *Orchestrator) { o.saveCredential = save }
}

// Orchestrator ingests date ranges and profiles.
//
// For each day of [begin, end) it runs the Guard on the requested day,
// fetches, parses the authoritative day from the payload, then under the
// per-key lock for that authoritative key re-runs the Guard and inserts.
// Failures are recorded per day and never abort the range, except losing
// the credential mid-range, which stops dispatch and returns ErrNoCredential.
type Orchestrator struct {
	cfg            Config
	creds          CredentialSource
	fetcher        fitbit.Fetcher
	store          Store
	guard          *Guard
	locks          *KeyedMutex
	archiver       Archiver
	publisher      Publisher
	encryptor      *credential.Encryptor
	saveCredential func(context.Context) error
}

// New creates an Orchestrator.
func New(cfg Config, creds CredentialSource, fetcher fitbit.Fetcher, store Store, opts ...Option) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxRangeDays < 1 {
		cfg.MaxRangeDays = 366
	}
	o := &Orchestrator{
		cfg:     cfg,
		creds:   creds,
		fetcher: fetcher,
		store:   store,
		guard:   NewGuard(store),
		locks:   NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ingest fetches and stores category for every day in [begin, end).
//
// subjectID defaults to the credential's subject. The returned report is
// complete even when some days failed; a non-nil error is returned only for
// invalid calls (ErrInvalidRequest), a missing credential (ErrNoCredential)
// or caller cancellation. When the credential disappears mid-range or the
// caller cancels, the partial report is returned with the error.
func (o *Orchestrator) Ingest(ctx context.Context, category models.Category, subjectID string, begin, end models.Date) (*models.IngestionReport, error) {
	if err := o.validateRange(category, begin, end); err != nil {
		return nil, err
	}

	cred, err := o.creds.Current()
	if err != nil {
		return nil, err
	}
	if subjectID == "" {
		subjectID = cred.SubjectID
	}
	if subjectID == "" {
		return nil, fmt.Errorf("%w: no subject id; ingest the profile first or pass one", ErrInvalidRequest)
	}

	days := models.DaysInRange(begin, end)
	report := &models.IngestionReport{
		Category:  category,
		SubjectID: subjectID,
		Begin:     begin,
		End:       end,
		Days:      make([]models.DayOutcome, len(days)),
		StartedAt: time.Now().UTC(),
	}

	log := logging.Ctx(ctx).With().
		Str("category", string(category)).
		Str("subject_id", subjectID).
		Logger()
	log.Info().Str("begin", begin.String()).Str("end", end.String()).Int("days", len(days)).Msg("Range ingestion started")

	metrics.IngestInFlight.Inc()
	defer metrics.IngestInFlight.Dec()

	runCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)

	dispatched := 0
	for i, day := range days {
		if runCtx.Err() != nil {
			break
		}
		dispatched = i + 1
		g.Go(func() error {
			report.Days[i] = o.processDay(runCtx, stop, &log, category, subjectID, day)
			return nil
		})
	}
	_ = g.Wait()

	for i := dispatched; i < len(days); i++ {
		report.Days[i] = canceledDay(days[i], context.Cause(runCtx))
	}

	report.Tally()
	report.Duration = time.Since(report.StartedAt)
	metrics.RecordIngestion(string(category), report.Duration)

	event := log.Info()
	if report.Failed > 0 {
		event = log.Warn()
	}
	event.Int("stored", report.Stored).
		Int("duplicates", report.Duplicates).
		Int("no_data", report.NoData).
		Int("failed", report.Failed).
		Bool("needs_reauth", report.NeedsReauth).
		Dur("duration", report.Duration).
		Msg("Range ingestion finished")

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if cause := context.Cause(runCtx); errors.Is(cause, ErrNoCredential) {
		return report, cause
	}
	return report, nil
}

func (o *Orchestrator) validateRange(category models.Category, begin, end models.Date) error {
	if !category.Ingestable() {
		return fmt.Errorf("%w: category %q cannot be ingested by date range", ErrInvalidRequest, category)
	}
	if begin.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: begin and end dates are required", ErrInvalidRequest)
	}
	if end.Before(begin) {
		return fmt.Errorf("%w: end %s is before begin %s", ErrInvalidRequest, end, begin)
	}
	if n := models.DaysBetween(begin, end); n > o.cfg.MaxRangeDays {
		return fmt.Errorf("%w: range of %d days exceeds the limit of %d", ErrInvalidRequest, n, o.cfg.MaxRangeDays)
	}
	return nil
}

// processDay runs the guard-fetch-guard-insert sequence for one day. abort
// stops the whole range.
func (o *Orchestrator) processDay(parent context.Context, abort context.CancelCauseFunc, log *zerolog.Logger, category models.Category, subjectID string, day models.Date) (out models.DayOutcome) {
	out.Date = day
	start := time.Now()
	defer func() {
		metrics.RecordDayOutcome(string(category), string(out.Outcome), string(out.Kind))
		logDay(log, out, time.Since(start))
	}()

	if err := parent.Err(); err != nil {
		return canceledDay(day, context.Cause(parent))
	}

	fail := func(err error) models.DayOutcome {
		out.Outcome = models.OutcomeFailed
		out.Kind, out.StatusCode = classify(parent, err)
		out.Error = err.Error()
		return out
	}

	checkCtx, cancelCheck := o.stepContext(parent)
	exists, err := o.guard.Exists(checkCtx, subjectID, day, category)
	cancelCheck()
	if err != nil {
		return fail(err)
	}
	if exists {
		out.RecordDate = day
		out.Outcome = models.OutcomeDuplicate
		return out
	}

	// Read per day so a refresh during a long range is picked up.
	cred, err := o.creds.Current()
	if err != nil {
		abort(err)
		return fail(err)
	}

	body, err := o.fetcher.Fetch(parent, category, day, cred.AccessToken)
	if err != nil {
		return fail(err)
	}

	payload, recordDate, err := fitbit.ParsePayload(category, body)
	if errors.Is(err, models.ErrEmptyPayload) {
		out.Outcome = models.OutcomeNoData
		return out
	}
	if err != nil {
		return fail(err)
	}
	out.RecordDate = recordDate

	rec := models.NewRecord(subjectID, recordDate, payload)
	key := rec.Key()

	unlock := o.locks.Lock(key.String())
	defer unlock()

	ctx, cancel := o.stepContext(parent)
	defer cancel()

	exists, err = o.guard.Exists(ctx, subjectID, recordDate, category)
	if err != nil {
		return fail(err)
	}
	if exists {
		out.Outcome = models.OutcomeDuplicate
		return out
	}

	if o.archiver != nil {
		if err := o.archiver.Archive(ctx, key, body); err != nil {
			log.Warn().Err(err).Str("key", key.String()).Msg("Raw payload archive failed")
		}
	}

	if err := o.store.InsertRecord(ctx, rec); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			out.Outcome = models.OutcomeDuplicate
			return out
		}
		return fail(fmt.Errorf("%w: insert %s: %w", ErrStore, key, err))
	}

	if o.publisher != nil {
		if err := o.publisher.PublishRecordIngested(ctx, rec); err != nil {
			log.Warn().Err(err).Str("key", key.String()).Msg("Failed to publish record event")
		}
	}

	out.Outcome = models.OutcomeStored
	return out
}

// stepContext bounds one store step by DayTimeout.
func (o *Orchestrator) stepContext(parent context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.DayTimeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, o.cfg.DayTimeout)
}

func canceledDay(day models.Date, err error) models.DayOutcome {
	if err == nil {
		err = context.Canceled
	}
	return models.DayOutcome{
		Date:    day,
		Outcome: models.OutcomeFailed,
		Kind:    models.ErrorKindCanceled,
		Error:   err.Error(),
	}
}

func logDay(log *zerolog.Logger, out models.DayOutcome, elapsed time.Duration) {
	event := log.Debug()
	if out.Outcome == models.OutcomeFailed {
		event = log.Warn().Str("kind", string(out.Kind)).Str("error", out.Error)
		if out.StatusCode != 0 {
			event = event.Int("status", out.StatusCode)
		}
	}
	event.Str("date", out.Date.String()).
		Str("outcome", string(out.Outcome)).
		Dur("elapsed", elapsed).
		Msg("Day processed")
}
