// Package client is a small SDK for consuming a simulator's live
// telemetry feed: it dials the websocket endpoint and decodes the event
// stream into typed payloads.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/linesim/linesim/pkg/linesim"
)

// Event is one decoded telemetry event. Data holds the raw payload;
// Frame, Read and Stop decode it for the common event types.
type Event struct {
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

// Frame decodes a sim.frame payload.
func (e Event) Frame() (linesim.FrameData, error) {
	var f linesim.FrameData
	err := json.Unmarshal(e.Data, &f)
	return f, err
}

// Read decodes a sensor.read payload.
func (e Event) Read() (linesim.SensorRead, error) {
	var r linesim.SensorRead
	err := json.Unmarshal(e.Data, &r)
	return r, err
}

// Stop decodes a run termination payload (finish, bounds exit or quit).
func (e Event) Stop() (linesim.StopData, error) {
	var s linesim.StopData
	err := json.Unmarshal(e.Data, &s)
	return s, err
}

// Client is a connected telemetry consumer.
type Client struct {
	conn   *websocket.Conn
	closed int32 // atomic bool
}

// Dial connects to a simulator's telemetry server at host:port.
func Dial(ctx context.Context, addr string) (*Client, error) {
	url := fmt.Sprintf("ws://%s/ws", addr)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Next blocks until the next event arrives. It returns ErrClientClosed
// after Close and the underlying read error when the server goes away.
func (c *Client) Next() (Event, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return Event{}, ErrClientClosed
	}
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		if atomic.LoadInt32(&c.closed) == 1 {
			return Event{}, ErrClientClosed
		}
		return Event{}, err
	}
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Event{}, fmt.Errorf("client: decode event: %w", err)
	}
	return evt, nil
}

// Close shuts the connection down.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return ErrClientClosed
	}
	return c.conn.Close()
}
