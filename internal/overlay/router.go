// Package overlay fans out OverlayUpdate payloads to whichever overlay
// windows are currently running, and relays their raid-frame actions back
// to the raid slot registry. It is a cooperative hub in the same register/
// unregister/broadcast shape the rest of this codebase uses for fan-out,
// minus the network transport: an embedding application wires its own
// windows (desktop overlay, browser overlay, etc.) to Register/Unregister.
package overlay

import (
	"context"
	"sync/atomic"
	"time"

	"combatlog/internal/config"
	"combatlog/internal/raid"
	"combatlog/internal/telemetry"
)

// PayloadKind distinguishes the overlay payload variants of §4.9.
type PayloadKind uint8

const (
	PayloadMetrics PayloadKind = iota
	PayloadPersonal
	PayloadRaid
	PayloadBossHealth
	PayloadTimers
	PayloadEffects
	PayloadClear
)

// Payload is one converted update delivered to a single overlay's channel.
type Payload struct {
	Kind PayloadKind
	Data interface{}
}

// RegistryAction is a raid-frame action an overlay sends back upstream.
type RegistryAction struct {
	SwapA, SwapB int
	ClearSlot    int
	IsSwap       bool
	IsClear      bool
}

// subscriber is one registered overlay's outbound channel.
type subscriber struct {
	id int
	ch chan Payload
}

// Router is the long-lived cooperative task described in §4.9.
type Router struct {
	cfg     config.OverlayConfig
	metrics *telemetry.Metrics

	register   chan subscriber
	unregister chan int
	updates    chan Payload
	actions    chan RegistryAction

	registry *raid.Registry

	nextID atomic.Int64
	subs   map[int]chan Payload
}

// New constructs a Router that forwards raid-frame actions to registry.
func New(cfg config.OverlayConfig, registry *raid.Registry, metrics *telemetry.Metrics) *Router {
	return &Router{
		cfg:        cfg,
		metrics:    metrics,
		register:   make(chan subscriber),
		unregister: make(chan int),
		updates:    make(chan Payload, 64),
		actions:    make(chan RegistryAction, 16),
		registry:   registry,
		subs:       make(map[int]chan Payload),
	}
}

// Register adds a new overlay subscriber and returns its id (for
// Unregister) and its inbound channel.
func (r *Router) Register(ctx context.Context) (int, <-chan Payload) {
	ch := make(chan Payload, r.cfg.SubscriberBuf)
	id := int(r.nextID.Add(1))
	select {
	case r.register <- subscriber{id: id, ch: ch}:
	case <-ctx.Done():
	}
	return id, ch
}

// Unregister removes overlay id.
func (r *Router) Unregister(id int) {
	r.unregister <- id
}

// Publish enqueues an update for delivery to every registered overlay. It
// never blocks indefinitely: if the internal queue is full, the update is
// dropped and OverlayDropsTotal is incremented.
func (r *Router) Publish(p Payload) {
	select {
	case r.updates <- p:
	default:
		if r.metrics != nil {
			r.metrics.OverlayDropsTotal.Inc()
		}
	}
}

// SubmitAction enqueues a raid-frame action from an overlay for the Router
// to apply to the registry.
func (r *Router) SubmitAction(a RegistryAction) {
	select {
	case r.actions <- a:
	default:
	}
}

// Run drives the router until ctx is canceled. It waits up to
// cfg.RecvTimeout for an update; on every tick (timeout or not) it also
// drains pending registry actions non-blockingly, per §4.9.
func (r *Router) Run(ctx context.Context) {
	timer := time.NewTimer(r.cfg.RecvTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-r.register:
			r.subs[sub.id] = sub.ch

		case id := <-r.unregister:
			if ch, ok := r.subs[id]; ok {
				close(ch)
				delete(r.subs, id)
			}

		case p := <-r.updates:
			r.broadcast(p)
			r.drainActions()

		case <-timer.C:
			r.drainActions()
			timer.Reset(r.cfg.RecvTimeout)
		}
	}
}

func (r *Router) broadcast(p Payload) {
	for _, ch := range r.subs {
		select {
		case ch <- p:
		default:
			if r.metrics != nil {
				r.metrics.OverlayDropsTotal.Inc()
			}
		}
	}
}

// drainActions applies every currently-queued RegistryAction without
// blocking.
func (r *Router) drainActions() {
	for {
		select {
		case a := <-r.actions:
			r.applyAction(a)
		default:
			return
		}
	}
}

func (r *Router) applyAction(a RegistryAction) {
	if r.registry == nil {
		return
	}
	switch {
	case a.IsSwap:
		r.registry.SwapSlots(a.SwapA, a.SwapB)
	case a.IsClear:
		r.registry.RemoveSlot(a.ClearSlot)
	}
}

// ClearAllData broadcasts an empty payload to every running overlay, used
// on file-switch per §4.10.
func (r *Router) ClearAllData() {
	r.Publish(Payload{Kind: PayloadClear})
}
