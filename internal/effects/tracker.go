package effects

import (
	"sync"
	"time"

	"combatlog/internal/model"
)

// activeKey identifies one ActiveEffect: a definition tracked against one
// target entity.
type activeKey struct {
	definitionID int64
	targetID     int64
}

// ActiveEffect is a currently-tracked persistent effect or ability-cast
// timer.
type ActiveEffect struct {
	DefinitionID int64
	TargetID     int64
	SourceID     int64
	AppliedAt    time.Time
	ExpiresAt    time.Time
}

// Alert is one fired alert record, drained by the consumer.
type Alert struct {
	DefinitionID      int64
	Text              string
	AlertTextEnabled  bool
	AudioEnabled      bool
	AudioFile         string
	FiredAt           time.Time
}

// Tracker holds a DefinitionSet and the live ActiveEffect/alert state
// derived from GameSignals. Safe for concurrent use: signals typically
// arrive from the session processor's goroutine while overlay consumers
// drain alerts and read active effects from another.
type Tracker struct {
	mu      sync.Mutex
	defs    DefinitionSet
	active  map[activeKey]*ActiveEffect
	alerts  []Alert
}

// New constructs a Tracker over an immutable DefinitionSet.
func New(defs DefinitionSet) *Tracker {
	return &Tracker{
		defs:   defs,
		active: make(map[activeKey]*ActiveEffect),
	}
}

// HandleSignal applies one GameSignal to the tracker per §4.7.
func (t *Tracker) HandleSignal(sig model.GameSignal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch sig.Kind {
	case model.SignalEffectApplied:
		for _, d := range t.defs.EffectApplied(sig.EffectID, sig.SourceID, sig.TargetID) {
			t.apply(d, sig.SourceID, sig.TargetID, sig.Timestamp)
		}

	case model.SignalEffectRemoved:
		for _, d := range t.defs.EffectApplied(sig.EffectID, sig.SourceID, sig.TargetID) {
			if d.IgnoreEffectRemoved {
				continue
			}
			delete(t.active, activeKey{definitionID: d.ID, targetID: sig.TargetID})
		}

	case model.SignalAbilityActivated:
		for _, d := range t.defs.AbilityActivated(sig.AbilityID, sig.SourceID) {
			t.apply(d, sig.SourceID, sig.SourceID, sig.Timestamp)
		}

	case model.SignalEntityDeath:
		for key := range t.active {
			if key.targetID != sig.EntityID {
				continue
			}
			def := t.definitionByID(key.definitionID)
			if def != nil && def.PersistPastDeath {
				continue
			}
			delete(t.active, key)
		}

	case model.SignalCombatEnded:
		for key := range t.active {
			def := t.definitionByID(key.definitionID)
			if def != nil && def.TrackOutsideCombat {
				continue
			}
			delete(t.active, key)
		}
	}
}

// apply implements the instant-alert vs persistent-effect branch shared by
// EffectApplied and AbilityActivated triggers.
func (t *Tracker) apply(d EffectDefinition, sourceID, targetID int64, at time.Time) {
	if d.IsAlert {
		t.fireAlert(d, at)
		return
	}

	key := activeKey{definitionID: d.ID, targetID: targetID}
	expires := time.Time{}
	if d.DurationSecs > 0 {
		expires = at.Add(time.Duration(d.DurationSecs * float64(time.Second)))
	}
	t.active[key] = &ActiveEffect{
		DefinitionID: d.ID,
		TargetID:     targetID,
		SourceID:     sourceID,
		AppliedAt:    at,
		ExpiresAt:    expires,
	}

	if d.AlertOn == AlertOnApply {
		t.fireAlert(d, at)
	}
}

func (t *Tracker) fireAlert(d EffectDefinition, at time.Time) {
	t.alerts = append(t.alerts, Alert{
		DefinitionID:     d.ID,
		Text:             d.alertText(),
		AlertTextEnabled: d.hasAlertText(),
		AudioEnabled:     d.AudioEnabled,
		AudioFile:        d.AudioFile,
		FiredAt:          at,
	})
}

func (t *Tracker) definitionByID(id int64) *EffectDefinition {
	for i := range t.defs.Definitions {
		if t.defs.Definitions[i].ID == id {
			return &t.defs.Definitions[i]
		}
	}
	return nil
}

// TakeFiredAlerts returns and clears the internal alert buffer.
func (t *Tracker) TakeFiredAlerts() []Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.alerts) == 0 {
		return nil
	}
	out := t.alerts
	t.alerts = nil
	return out
}

// ActiveEffects returns a snapshot of every currently-tracked ActiveEffect
// for targetID.
func (t *Tracker) ActiveEffects(targetID int64) []ActiveEffect {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []ActiveEffect
	for key, ae := range t.active {
		if key.targetID == targetID {
			out = append(out, *ae)
		}
	}
	return out
}

// Count reports how many ActiveEffects are currently tracked, for metrics.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
