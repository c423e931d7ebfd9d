// Package events publishes sign-in outcomes for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BeArt-PDD/beart-labs/internal/metrics"
)

const (
	SubjectAccepted = "signin.accepted"
	SubjectRejected = "signin.rejected"
)

// SignInEvent is the JSON body of a sign-in notification.
type SignInEvent struct {
	EventID   string    `json:"event_id"`
	Accepted  bool      `json:"accepted"`
	Address   string    `json:"address,omitempty"`
	ChainID   int64     `json:"chain_id,omitempty"`
	Domain    string    `json:"domain"`
	Nonce     string    `json:"nonce,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Scheme    string    `json:"scheme"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers sign-in events. Implementations must not block the
// sign-in on a slow broker for longer than their own timeout.
type Publisher interface {
	PublishSignIn(ctx context.Context, event SignInEvent) error
}

// JSONPublisher is the part of clients.NATSClient the NATS publisher needs.
type JSONPublisher interface {
	Publish(subject string, payload interface{}) error
}

// NATSPublisher publishes events under "<prefix>.signin.accepted" and
// "<prefix>.signin.rejected".
type NATSPublisher struct {
	client JSONPublisher
	prefix string
}

func NewNATSPublisher(client JSONPublisher, prefix string) *NATSPublisher {
	return &NATSPublisher{client: client, prefix: prefix}
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(event SignInEvent) string {
	subject := SubjectRejected
	if event.Accepted {
		subject = SubjectAccepted
	}
	if p.prefix == "" {
		return subject
	}
	return p.prefix + "." + subject
}

func (p *NATSPublisher) PublishSignIn(ctx context.Context, event SignInEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := p.Subject(event)
	if err := p.client.Publish(subject, event); err != nil {
		metrics.NATSMessagesFailed.WithLabelValues(subject).Inc()
		return err
	}

	metrics.NATSMessagesPublished.WithLabelValues(subject).Inc()
	logrus.WithFields(logrus.Fields{
		"subject":  subject,
		"event_id": event.EventID,
	}).Debug("📨 [NATS] Published sign-in event")
	return nil
}

// NoopPublisher drops every event. Used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSignIn(context.Context, SignInEvent) error {
	return nil
}
