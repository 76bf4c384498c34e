// Package stream publishes per-tick frames to a remote render adapter over
// WebSocket and relays console commands coming back from it.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/carnagereport/theater/pkg/core"
	"github.com/carnagereport/theater/pkg/streaming"
)

// Config holds frame stream configuration.
type Config struct {
	URL    string
	Secret string
	// Every publishes one frame out of every N. Values below 1 mean every frame.
	Every int
}

// Publisher sends frames to the render adapter.
type Publisher struct {
	conn   *connection
	cfg    Config
	ticks  atomic.Uint64
	sent   atomic.Uint64
	logger *slog.Logger
}

// New creates a new frame publisher.
func New(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Every < 1 {
		cfg.Every = 1
	}
	return &Publisher{
		conn:   newConnection(logger),
		cfg:    cfg,
		logger: logger,
	}
}

// Connect dials the render adapter.
func (p *Publisher) Connect() error {
	return p.conn.dial(p.cfg.URL, p.cfg.Secret)
}

// Close disconnects from the render adapter.
func (p *Publisher) Close() error {
	return p.conn.close()
}

// Commands delivers console lines sent by the render adapter.
func (p *Publisher) Commands() <-chan string {
	return p.conn.cmdCh
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartReplay announces the replay and waits for the adapter's ack. The
// message is cached and sent again after a reconnect.
func (p *Publisher) StartReplay(info streaming.StartReplayPayload) error {
	data, err := marshalEnvelope(streaming.TypeStartReplay, info)
	if err != nil {
		return err
	}

	p.conn.mu.Lock()
	p.conn.cachedStartMsg = data
	p.conn.mu.Unlock()

	return p.conn.sendAndWait(data, streaming.TypeStartReplay, ackTimeout)
}

// EndReplay sends end_replay and waits for the adapter's ack.
func (p *Publisher) EndReplay() error {
	data, err := marshalEnvelope(streaming.TypeEndReplay, nil)
	if err != nil {
		return err
	}
	err = p.conn.sendAndWait(data, streaming.TypeEndReplay, ackTimeout)

	// Clear cached state regardless of error.
	p.conn.mu.Lock()
	p.conn.cachedStartMsg = nil
	p.conn.mu.Unlock()

	return err
}

// Publish queues a frame, fire-and-forget. Frames are thinned to one in
// Every and dropped when the send queue is full. It reports whether the
// frame was queued.
func (p *Publisher) Publish(f core.Frame) (bool, error) {
	n := p.ticks.Add(1)
	if (n-1)%uint64(p.cfg.Every) != 0 {
		return false, nil
	}

	data, err := marshalEnvelope(streaming.TypeFrame, f)
	if err != nil {
		return false, err
	}
	if !p.conn.send(data) {
		return false, nil
	}
	p.sent.Add(1)
	return true, nil
}

// Sent is the number of frames queued for sending.
func (p *Publisher) Sent() uint64 { return p.sent.Load() }

// Dropped is the number of messages dropped because the send queue was full.
func (p *Publisher) Dropped() uint64 {
	p.conn.mu.Lock()
	defer p.conn.mu.Unlock()
	return p.conn.dropped
}
