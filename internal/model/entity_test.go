package model

import (
	"testing"
	"time"
)

func TestDeriveZeroDuration(t *testing.T) {
	acc := MetricAccumulator{DamageDealt: 1000}
	got := Derive(acc, 0)
	if got != (DerivedMetrics{}) {
		t.Fatalf("expected zero metrics for zero duration, got %+v", got)
	}
}

func TestDeriveRates(t *testing.T) {
	acc := MetricAccumulator{
		DamageDealt:          10000,
		DamageDealtEffective: 9000,
		HealingDone:          5000,
		DamageReceived:       2000,
		ShieldingGiven:       1000,
		ThreatGenerated:      4000,
		Actions:              120,
	}
	got := Derive(acc, 10)
	if got.DPS != 1000 {
		t.Fatalf("dps = %d, want 1000", got.DPS)
	}
	if got.EDPS != 900 {
		t.Fatalf("edps = %d, want 900", got.EDPS)
	}
	if got.HPS != 500 {
		t.Fatalf("hps = %d, want 500", got.HPS)
	}
	if got.DTPS != 200 {
		t.Fatalf("dtps = %d, want 200", got.DTPS)
	}
	if got.AbsPS != 100 {
		t.Fatalf("abs = %d, want 100", got.AbsPS)
	}
	if got.TPS != 400 {
		t.Fatalf("tps = %d, want 400", got.TPS)
	}
	if got.APM != 720 {
		t.Fatalf("apm = %d, want 720", got.APM)
	}
}

func TestEffectInstanceActiveAt(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	notRemoved := EffectInstance{AppliedAt: base}
	if !notRemoved.ActiveAt(base.Add(time.Hour), 2*time.Second) {
		t.Fatalf("instance with no removed_at should always be active")
	}

	removedAfterEvent := EffectInstance{
		AppliedAt: base, RemovedAt: base.Add(5 * time.Second), HasRemoved: true,
	}
	if !removedAfterEvent.ActiveAt(base.Add(3*time.Second), 2*time.Second) {
		t.Fatalf("instance removed after the event time should be active")
	}

	withinGrace := EffectInstance{
		AppliedAt: base, RemovedAt: base.Add(1 * time.Second), HasRemoved: true,
	}
	if !withinGrace.ActiveAt(base.Add(2500*time.Millisecond), 2*time.Second) {
		t.Fatalf("instance within the grace window should be active")
	}

	outsideGrace := EffectInstance{
		AppliedAt: base, RemovedAt: base.Add(1 * time.Second), HasRemoved: true,
	}
	if outsideGrace.ActiveAt(base.Add(3500*time.Millisecond), 2*time.Second) {
		t.Fatalf("instance outside the grace window should not be active")
	}
}

func TestShieldAndAbilityTables(t *testing.T) {
	for id := range ShieldEffectIDs {
		if !IsShieldEffect(id) {
			t.Fatalf("expected %d to be a shield effect", id)
		}
	}
	if IsShieldEffect(1) {
		t.Fatalf("did not expect id 1 to be a shield effect")
	}
}
