// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

// Bus is the in-process event bus. It implements the ingestion publisher.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewBus returns a bus logging through the application logger.
func NewBus() *Bus {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger),
		logger: logger,
	}
}

// Subscriber returns the subscriber side of the bus.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// Close stops delivery to every subscriber.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// PublishRecordIngested publishes TopicRecordIngested for rec.
func (b *Bus) PublishRecordIngested(ctx context.Context, rec *models.Record) error {
	evt := RecordIngested{
		Envelope:  newEnvelope(ctx, TopicRecordIngested),
		RecordID:  rec.ID.String(),
		SubjectID: rec.SubjectID,
		Date:      rec.Date.String(),
		Category:  rec.Category,
	}
	return b.publish(ctx, TopicRecordIngested, evt.EventID, evt)
}

// PublishSubjectEnrolled publishes TopicSubjectEnrolled for s.
func (b *Bus) PublishSubjectEnrolled(ctx context.Context, s *models.Subject) error {
	evt := SubjectEnrolled{
		Envelope:  newEnvelope(ctx, TopicSubjectEnrolled),
		SubjectID: s.ExternalID,
		Name:      s.Name,
	}
	return b.publish(ctx, TopicSubjectEnrolled, evt.EventID, evt)
}

func (b *Bus) publish(ctx context.Context, topic, id string, evt any) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := message.NewMessageWithContext(ctx, id, payload)
	if cid := logging.CorrelationIDFromContext(ctx); cid != "" {
		msg.Metadata.Set("correlation_id", cid)
	}
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublishedTotal.WithLabelValues(topic).Inc()
	return nil
}

func newEnvelope(ctx context.Context, eventType string) Envelope {
	return Envelope{
		EventVersion:  eventVersion,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		OccurredAt:    time.Now().UTC(),
		CorrelationID: logging.CorrelationIDFromContext(ctx),
	}
}
