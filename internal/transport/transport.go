/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package transport

import (
	"encoding/json"
	"fmt"
)

// Event names shared by the relay server and its clients.
const (
	EventWelcome     = "welcome"
	EventJoin        = "join"
	EventSetUsers    = "setUsers"
	EventStartRound  = "startRound"
	EventMoveEmit    = "stickmanEmitMove"
	EventMoveReceive = "stickmanReceiveMove"
	EventNotice      = "notice"
)

// Envelope is one message on the event channel. From and Seq are filled in
// for relayed moves: From is the sender's player id and Seq its own counter.
type Envelope struct {
	Event string          `json:"event"`
	From  string          `json:"from,omitempty"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Channel is the bidirectional event channel the game core talks through.
// Delivery is at-least-once and unordered; no retries happen here.
type Channel interface {
	Emit(event string, seq uint64, data any) error
	Subscribe(event string, handler func(Envelope))
}

// Encode wraps data in an envelope. Raw JSON passes through unchanged.
func Encode(env Envelope, data any) ([]byte, error) {
	if env.Event == "" {
		return nil, fmt.Errorf("encode envelope: missing event name")
	}

	if data != nil {
		raw, err := Raw(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", env.Event, err)
		}
		env.Data = raw
	}

	return json.Marshal(env)
}

// Raw marshals data unless it already is JSON.
func Raw(data any) (json.RawMessage, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return json.RawMessage(v), nil
	default:
		return json.Marshal(v)
	}
}

func Decode(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("decode envelope: empty message")
	}

	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing event name")
	}

	return env, nil
}

func DecodeData[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, fmt.Errorf("empty data for event %q", env.Event)
	}
	err := json.Unmarshal(env.Data, &out)

	return out, err
}
