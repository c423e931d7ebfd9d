package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/BeArt-PDD/beart-labs/internal/config"
	"github.com/BeArt-PDD/beart-labs/internal/metrics"
)

// NATSClient NATS client used to publish sign-in events
type NATSClient struct {
	conn *nats.Conn
}

// NewNATSClient connects to cfg.URL. Reconnects are handled by the nats
// library; the connection gauge follows them.
func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	connectTimeout := 10 * time.Second
	if cfg.Timeout > 0 {
		connectTimeout = time.Duration(cfg.Timeout) * time.Second
	}
	reconnectWait := 5 * time.Second
	if cfg.ReconnectWait > 0 {
		reconnectWait = time.Duration(cfg.ReconnectWait) * time.Second
	}
	maxReconnects := -1
	if cfg.MaxReconnects != 0 {
		maxReconnects = cfg.MaxReconnects
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("siwe"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logrus.WithError(err).Warn("⚠️ NATS disconnected")
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.WithField("url", nc.ConnectedUrl()).Info("🔌 NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	metrics.NATSConnectionStatus.Set(1)
	logrus.WithFields(logrus.Fields{
		"url":     conn.ConnectedUrl(),
		"timeout": connectTimeout,
	}).Info("✅ NATS client connected")

	return &NATSClient{conn: conn}, nil
}

// Publish JSON-encodes payload onto subject.
func (c *NATSClient) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode NATS payload: %w", err)
	}
	return c.PublishRaw(subject, data)
}

func (c *NATSClient) PublishRaw(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close flushes pending messages and closes the connection.
func (c *NATSClient) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		logrus.WithError(err).Warn("NATS drain failed, closing")
		c.conn.Close()
	}
	metrics.NATSConnectionStatus.Set(0)
}
