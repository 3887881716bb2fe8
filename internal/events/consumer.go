// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
)

// ConsumerConfig tunes the consumer's router.
type ConsumerConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
}

// DefaultConsumerConfig returns production defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
	}
}

// Consumer subscribes to every topic on the bus and records each event in
// the feed.
type Consumer struct {
	router *message.Router
	feed   *Feed
}

// NewConsumer wires handlers for both topics of bus into a router.
func NewConsumer(bus *Bus, feed *Feed, cfg ConsumerConfig) (*Consumer, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, bus.logger)
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		Logger:          bus.logger,
	}
	router.AddMiddleware(retry.Middleware)

	c := &Consumer{router: router, feed: feed}
	router.AddConsumerHandler("record_ingested_feed", TopicRecordIngested, bus.Subscriber(), c.handleRecordIngested)
	router.AddConsumerHandler("subject_enrolled_feed", TopicSubjectEnrolled, bus.Subscriber(), c.handleSubjectEnrolled)
	return c, nil
}

// RunWithContext runs the router until ctx is done.
func (c *Consumer) RunWithContext(ctx context.Context) error {
	if err := c.router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

// Running is closed once every handler is subscribed.
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *Consumer) handleRecordIngested(msg *message.Message) error {
	var evt RecordIngested
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		// Undecodable messages are acked; retrying cannot fix them.
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed record event")
		return nil
	}
	c.feed.Add(Summary{
		EventID:    evt.EventID,
		Topic:      TopicRecordIngested,
		SubjectID:  evt.SubjectID,
		Detail:     fmt.Sprintf("%s %s", evt.Category, evt.Date),
		OccurredAt: evt.OccurredAt,
	})
	metrics.EventsConsumedTotal.WithLabelValues(TopicRecordIngested).Inc()
	logging.Debug().
		Str("subject", evt.SubjectID).
		Str("date", evt.Date).
		Str("category", string(evt.Category)).
		Str("correlation_id", evt.CorrelationID).
		Msg("Record ingested")
	return nil
}

func (c *Consumer) handleSubjectEnrolled(msg *message.Message) error {
	var evt SubjectEnrolled
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed subject event")
		return nil
	}
	c.feed.Add(Summary{
		EventID:    evt.EventID,
		Topic:      TopicSubjectEnrolled,
		SubjectID:  evt.SubjectID,
		Detail:     evt.Name,
		OccurredAt: evt.OccurredAt,
	})
	metrics.EventsConsumedTotal.WithLabelValues(TopicSubjectEnrolled).Inc()
	logging.Info().Str("subject", evt.SubjectID).Msg("Subject enrolled")
	return nil
}
