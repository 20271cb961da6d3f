// SPDX-License-Identifier: MIT

package config

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	xlog "github.com/groveworks/siteconf/internal/log"
)

// EventKind classifies change notifications.
type EventKind int

const (
	// EventLoaded fires after every successful load or reload.
	EventLoaded EventKind = iota
	// EventError fires when a load fails and a prior snapshot (or the
	// compiled-in default) was kept instead.
	EventError
	// EventChanged fires after a watcher-triggered reload succeeds, in
	// addition to EventLoaded, so consumers can tell live updates from the
	// initial load.
	EventChanged
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventError:
		return "error"
	case EventChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Event is one change notification. Events are not persisted.
type Event struct {
	ID           string
	Kind         EventKind
	Domain       string
	File         string // set on EventChanged
	Err          error  // set on EventError
	UsingDefault bool   // set on EventError when the default was substituted
	Time         time.Time
}

// Handler consumes events. Handlers run synchronously on the goroutine that
// performed the store swap and must not block.
type Handler func(Event)

// Bus is a typed publish/subscribe registry for change notifications.
// Delivery is synchronous and happens strictly after the store swap that
// triggered the event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventKind][]Handler
	logger   zerolog.Logger
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventKind][]Handler),
		logger:   xlog.WithComponent("config.events"),
	}
}

// Subscribe registers a handler for one event kind.
func (b *Bus) Subscribe(kind EventKind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

func (b *Bus) publish(ev Event) {
	ev.ID = uuid.NewString()
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[ev.Kind]...)
	b.mu.RUnlock()

	b.logger.Debug().
		Str("event", "config."+ev.Kind.String()).
		Str("id", ev.ID).
		Str("domain", ev.Domain).
		Msg("publishing notification")

	for _, h := range handlers {
		h(ev)
	}
}
