package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	subjects []string
	payloads []interface{}
	err      error
}

func (c *recordingClient) Publish(subject string, payload interface{}) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, payload)
	return nil
}

func TestNATSPublisherSubjects(t *testing.T) {
	client := &recordingClient{}
	publisher := NewNATSPublisher(client, "siwe")

	accepted := SignInEvent{EventID: "1", Accepted: true, Address: "0xabc", ChainID: 1, Domain: "app.example", Timestamp: time.Now()}
	rejected := SignInEvent{EventID: "2", Domain: "app.example", Reason: "nonce_replay", Timestamp: time.Now()}

	require.NoError(t, publisher.PublishSignIn(context.Background(), accepted))
	require.NoError(t, publisher.PublishSignIn(context.Background(), rejected))

	assert.Equal(t, []string{"siwe.signin.accepted", "siwe.signin.rejected"}, client.subjects)
	assert.Equal(t, accepted, client.payloads[0])

	assert.Equal(t, "signin.accepted", NewNATSPublisher(client, "").Subject(accepted))
}

func TestNATSPublisherErrors(t *testing.T) {
	publisher := NewNATSPublisher(&recordingClient{err: errors.New("nats: connection closed")}, "siwe")
	assert.Error(t, publisher.PublishSignIn(context.Background(), SignInEvent{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewNATSPublisher(&recordingClient{}, "siwe").PublishSignIn(ctx, SignInEvent{}), context.Canceled)
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.PublishSignIn(context.Background(), SignInEvent{}))
}
