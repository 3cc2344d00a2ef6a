// Package model holds the data types shared across the combat log pipeline:
// parsed events, entity records, accumulators, derived metrics, and the
// signal values the event processor emits.
package model

import (
	"time"

	"combatlog/internal/intern"
)

// EntityType is the closed set of actors that can appear in a log line.
type EntityType uint8

const (
	EntityUnknown EntityType = iota
	EntityPlayer
	EntityNpc
	EntityCompanion
	EntityOther
)

func (t EntityType) String() string {
	switch t {
	case EntityPlayer:
		return "player"
	case EntityNpc:
		return "npc"
	case EntityCompanion:
		return "companion"
	case EntityOther:
		return "other"
	default:
		return "unknown"
	}
}

// EntityRef identifies one side of a combat event: the source or the target.
type EntityRef struct {
	LogID  int64
	Name   intern.IStr
	Type   EntityType
	NpcID  int64
	HasNpc bool
}

// AbilityRef identifies the ability that produced an event, when present.
type AbilityRef struct {
	ID   int64
	Name intern.IStr
}

// EffectRef identifies the effect that produced an event, when present.
type EffectRef struct {
	ID   int64
	Name intern.IStr
}

// EventDetails carries the numeric payload of a combat event.
type EventDetails struct {
	DamageAmount    int64
	DamageAbsorbed  int64
	DamageEffective int64
	HealAmount      int64
	HealEffective   int64
	Threat          float64
	Critical        bool
	AttackType      string
}

// PlayerInfo tracks what the session knows about the local player and any
// other player entity referenced by the log.
type PlayerInfo struct {
	ID                     int64
	Name                   intern.IStr
	ClassID                int64
	ClassName              intern.IStr
	DisciplineID           int64
	DisciplineName         intern.IStr
	IsDead                 bool
	DeathTime              time.Time
	ReceivedReviveImmunity bool
	CurrentTargetID        int64
	LastSeenAt             time.Time
}

// Initialized reports whether both class and discipline have been observed.
func (p PlayerInfo) Initialized() bool {
	return p.ClassName != intern.EmptyIStr() && p.DisciplineName != intern.EmptyIStr()
}

// NpcInfo tracks what the session knows about an NPC entity.
type NpcInfo struct {
	ID        int64
	Name      intern.IStr
	NpcID     int64
	IsDead    bool
	DeathTime time.Time
}

// AreaInfo describes the zone the player currently occupies.
type AreaInfo struct {
	AreaID         int64
	AreaName       intern.IStr
	DifficultyID   int64
	DifficultyName intern.IStr
	EnteredAt      time.Time
	Generation     uint64
}

// EffectInstance is one currently-or-recently active effect on an entity.
type EffectInstance struct {
	EffectID    int64
	SourceID    int64
	TargetID    int64
	AppliedAt   time.Time
	RemovedAt   time.Time
	HasRemoved  bool
	IsShield    bool
	HasAbsorbed bool
}

// ActiveAt reports whether the instance is active at t, honoring the shield
// grace window described in spec §4.6.
func (e EffectInstance) ActiveAt(t time.Time, grace time.Duration) bool {
	if !e.HasRemoved {
		return true
	}
	if !e.RemovedAt.Before(t) {
		return true
	}
	diff := t.Sub(e.RemovedAt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= grace
}

// MetricAccumulator holds per-entity, per-encounter running totals.
type MetricAccumulator struct {
	DamageDealt          int64
	DamageDealtEffective int64
	DamageReceived       int64
	DamageAbsorbed       int64
	HealingDone          int64
	HealingEffective     int64
	HealingReceived      int64
	ShieldingGiven       int64
	ThreatGenerated      float64
	HitCount             int64
	Actions              int64
}

// DerivedMetrics are rates computed on demand from an accumulator and an
// encounter duration. They are never cached across event updates.
type DerivedMetrics struct {
	DPS      int32
	EDPS     int32
	HPS      int32
	EHPS     int32
	DTPS     int32
	AbsPS    int32
	TPS      int32
	APM      int32
	CritPct  float64
}

// Derive computes the rate fields for d_secs seconds of combat.
func Derive(acc MetricAccumulator, dSecs float64) DerivedMetrics {
	if dSecs <= 0 {
		return DerivedMetrics{}
	}
	return DerivedMetrics{
		DPS:   int32(float64(acc.DamageDealt) / dSecs),
		EDPS:  int32(float64(acc.DamageDealtEffective) / dSecs),
		HPS:   int32(float64(acc.HealingDone) / dSecs),
		EHPS:  int32(float64(acc.HealingEffective) / dSecs),
		DTPS:  int32(float64(acc.DamageReceived) / dSecs),
		AbsPS: int32(float64(acc.ShieldingGiven) / dSecs),
		TPS:   int32(acc.ThreatGenerated / dSecs),
		APM:   int32(float64(acc.Actions) * 60.0 / dSecs),
	}
}
