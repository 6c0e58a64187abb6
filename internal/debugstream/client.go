// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package debugstream

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
)

// Client reads one Snapshot at a time from a debug stream server, used by
// the monitor command's dashboard.
type Client struct {
	conn *websocket.Conn
}

// Dial opens a WebSocket connection to a debug stream server, sending
// Basic auth credentials only when a username is set.
func Dial(url, username, password string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	headers := http.Header{}
	if username != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+creds)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("debugstream: dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("debugstream: dial failed: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Next blocks for the next pushed Snapshot.
func (c *Client) Next() (Snapshot, error) {
	_, body, err := c.conn.ReadMessage()
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := cbor.Unmarshal(body, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("debugstream: decode snapshot: %w", err)
	}
	return snap, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
