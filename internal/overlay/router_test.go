package overlay

import (
	"context"
	"testing"
	"time"

	"combatlog/internal/config"
	"combatlog/internal/raid"
)

func fastCfg() config.OverlayConfig {
	return config.OverlayConfig{RecvTimeout: 5 * time.Millisecond, SubscriberBuf: 4}
}

func TestRouterBroadcastsToRegisteredOverlay(t *testing.T) {
	r := New(fastCfg(), raid.New(4), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Run(ctx)

	_, ch := r.Register(ctx)
	r.Publish(Payload{Kind: PayloadMetrics, Data: "hello"})

	select {
	case p := <-ch:
		if p.Kind != PayloadMetrics || p.Data != "hello" {
			t.Fatalf("unexpected payload: %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestRouterClearAllDataReachesEveryOverlay(t *testing.T) {
	r := New(fastCfg(), raid.New(4), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Run(ctx)

	_, chA := r.Register(ctx)
	_, chB := r.Register(ctx)

	r.ClearAllData()

	for _, ch := range []<-chan Payload{chA, chB} {
		select {
		case p := <-ch:
			if p.Kind != PayloadClear {
				t.Fatalf("expected PayloadClear, got %+v", p)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for ClearAllData")
		}
	}
}

func TestRouterAppliesSwapSlotsAction(t *testing.T) {
	registry := raid.New(4)
	registry.TryRegister(1, 0)

	r := New(fastCfg(), registry, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Run(ctx)

	r.SubmitAction(RegistryAction{IsSwap: true, SwapA: 0, SwapB: 2})

	deadline := time.After(time.Second)
	for {
		if slot, ok := registry.SlotFor(1); ok && slot == 2 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for swap action to apply")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRouterUnregisterClosesChannel(t *testing.T) {
	r := New(fastCfg(), raid.New(4), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Run(ctx)

	id, ch := r.Register(ctx)
	r.Unregister(id)

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel closed after Unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
