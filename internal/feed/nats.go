package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const defaultLoadTimeout = 5 * time.Second

// NATSClient implements Client over core NATS: one-shot loads use
// request/reply on <prefix>.load.<mode>, push updates arrive on
// <prefix>.update.<mode>. Payloads are JSON-encoded item sets.
type NATSClient struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

// NATSOption configures a NATSClient.
type NATSOption func(*NATSClient)

// WithLoadTimeout overrides the request/reply timeout for Load.
func WithLoadTimeout(d time.Duration) NATSOption {
	return func(c *NATSClient) { c.timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) NATSOption {
	return func(c *NATSClient) { c.logger = l }
}

// NewNATSClient wraps an established connection. prefix is the subject
// prefix the feed service publishes under, e.g. "feed".
func NewNATSClient(nc *nats.Conn, prefix string, opts ...NATSOption) *NATSClient {
	c := &NATSClient{
		nc:      nc,
		prefix:  prefix,
		timeout: defaultLoadTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the feed service and returns a ready client.
func Connect(url, prefix string, opts ...NATSOption) (*NATSClient, error) {
	nc, err := nats.Connect(url,
		nats.Name("scenescope-feed"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect feed service: %w", err)
	}
	return NewNATSClient(nc, prefix, opts...), nil
}

// Close drains the underlying connection.
func (c *NATSClient) Close() error { return c.nc.Drain() }

// Load requests the current item set for mode.
func (c *NATSClient) Load(ctx context.Context, mode string) ([]Item, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	subject := c.prefix + ".load." + mode
	msg, err := c.nc.RequestWithContext(reqCtx, subject, nil)
	if err != nil {
		return nil, &FetchError{Mode: mode, Err: err}
	}
	items, err := decodeItems(msg.Data)
	if err != nil {
		return nil, &FetchError{Mode: mode, Err: err}
	}
	return items, nil
}

type natsSubscription struct {
	sub       *nats.Subscription
	cancelled bool
}

func (s *natsSubscription) Cancel() error {
	if s.cancelled {
		return nil
	}
	s.cancelled = true
	return s.sub.Unsubscribe()
}

// Subscribe listens for pushed item sets on the mode's update subject.
// Decode failures are routed to h.OnError; the subscription stays live.
func (c *NATSClient) Subscribe(mode string, h Handlers) (Subscription, error) {
	subject := c.prefix + ".update." + mode
	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		items, err := decodeItems(msg.Data)
		if err != nil {
			c.logger.Warn("feed update decode failed",
				slog.String("mode", mode), slog.String("error", err.Error()))
			if h.OnError != nil {
				h.OnError(err)
			}
			return
		}
		if h.OnChange != nil {
			h.OnChange(items)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return &natsSubscription{sub: sub}, nil
}

func decodeItems(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	for i := range items {
		items[i] = items[i].Clamp()
	}
	return items, nil
}
