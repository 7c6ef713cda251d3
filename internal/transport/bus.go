/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package transport

import (
	"sync"
)

// Bus is an in-process event channel. Every endpoint created from it sees the
// events emitted by the others, like peers behind a relay. Handlers run on
// the emitting goroutine.
type Bus struct {
	mu        sync.RWMutex
	endpoints []*Endpoint
}

func NewBus() *Bus {
	return &Bus{}
}

// Endpoint is one participant on a Bus.
type Endpoint struct {
	bus      *Bus
	id       string
	mu       sync.RWMutex
	handlers map[string][]func(Envelope)
}

// Join adds a participant identified by playerID.
func (b *Bus) Join(playerID string) *Endpoint {
	e := &Endpoint{
		bus:      b,
		id:       playerID,
		handlers: make(map[string][]func(Envelope)),
	}

	b.mu.Lock()
	b.endpoints = append(b.endpoints, e)
	b.mu.Unlock()

	return e
}

// Emit delivers to every other endpoint. Moves are renamed the way the relay
// renames them, so subscribers listen for EventMoveReceive.
func (e *Endpoint) Emit(event string, seq uint64, data any) error {
	raw, err := Raw(data)
	if err != nil {
		return err
	}

	if event == EventMoveEmit {
		event = EventMoveReceive
	}
	env := Envelope{Event: event, From: e.id, Seq: seq, Data: raw}

	e.bus.mu.RLock()
	peers := make([]*Endpoint, 0, len(e.bus.endpoints))
	for _, p := range e.bus.endpoints {
		if p != e {
			peers = append(peers, p)
		}
	}
	e.bus.mu.RUnlock()

	for _, p := range peers {
		p.deliver(env)
	}

	return nil
}

func (e *Endpoint) Subscribe(event string, handler func(Envelope)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handlers[event] = append(e.handlers[event], handler)
}

func (e *Endpoint) deliver(env Envelope) {
	e.mu.RLock()
	handlers := append([]func(Envelope){}, e.handlers[env.Event]...)
	e.mu.RUnlock()

	for _, h := range handlers {
		h(env)
	}
}
