// Package session holds the live combat state machine: the bounded window
// of recent encounters, per-entity metric accumulators, and the pure event
// processor that turns a parsed CombatEvent into cache mutations plus a
// batch of GameSignals for downstream consumers.
package session

import (
	"time"

	"combatlog/internal/config"
	"combatlog/internal/model"
)

// EncounterState is the encounter's position in its combat lifecycle.
type EncounterState uint8

const (
	StateNotStarted EncounterState = iota
	StateInCombat
	StatePostCombat
	StateFinished
)

// postCombatGrace is the default for how long damage events are still
// attributed to a PostCombat encounter before it transitions to Finished;
// NewCache uses it when cfg.PostCombatGraceWindow is not positive.
const postCombatGrace = 5 * time.Second

// The shield grace window is passed to Process on every call (from
// config.ShieldConfig); it is not a package constant because it is tunable
// per §4.12.

// roster is the per-entity state tracked within one encounter.
type roster struct {
	acc     model.MetricAccumulator
	effects []model.EffectInstance
	isDead  bool
}

// Encounter is one bounded span of combat.
type Encounter struct {
	ID             uint64
	State          EncounterState
	EnterCombatAt  time.Time
	ExitCombatAt   time.Time
	FinishedAt     time.Time
	AllPlayersDead bool

	Player model.PlayerInfo

	entities map[int64]*roster
}

func newEncounter(id uint64, player model.PlayerInfo) *Encounter {
	return &Encounter{
		ID:       id,
		State:    StateNotStarted,
		Player:   player,
		entities: make(map[int64]*roster),
	}
}

func (e *Encounter) entity(id int64) *roster {
	r, ok := e.entities[id]
	if !ok {
		r = &roster{}
		e.entities[id] = r
	}
	return r
}

// Duration returns the encounter's combat duration in seconds, for feeding
// model.Derive. A still-running encounter is measured against now.
func (e *Encounter) Duration(now time.Time) float64 {
	if e.EnterCombatAt.IsZero() {
		return 0
	}
	end := now
	if !e.FinishedAt.IsZero() {
		end = e.FinishedAt
	} else if e.State == StatePostCombat && !e.ExitCombatAt.IsZero() {
		end = e.ExitCombatAt
	}
	d := end.Sub(e.EnterCombatAt).Seconds()
	if d < 0 {
		return 0
	}
	return d
}

// Metrics returns a snapshot of entityID's accumulator, or the zero value if
// the entity has not been observed in this encounter.
func (e *Encounter) Metrics(entityID int64) model.MetricAccumulator {
	if r, ok := e.entities[entityID]; ok {
		return r.acc
	}
	return model.MetricAccumulator{}
}

// Effects returns entityID's effect instances in this encounter.
func (e *Encounter) Effects(entityID int64) []model.EffectInstance {
	if r, ok := e.entities[entityID]; ok {
		return append([]model.EffectInstance(nil), r.effects...)
	}
	return nil
}

// Cache is the bounded session window plus ambient player/area state shared
// across encounters. It is mutated only by Process; callers outside the
// processor should treat it as read-only.
type Cache struct {
	cfg config.SessionConfig

	Player model.PlayerInfo
	Area   model.AreaInfo

	encounters      []*Encounter
	nextEncounterID uint64
}

// NewCache constructs an empty Cache bounded to cfg.EncounterHistory
// encounters.
func NewCache(cfg config.SessionConfig) *Cache {
	if cfg.EncounterHistory <= 0 {
		cfg.EncounterHistory = 3
	}
	if cfg.PostCombatGraceWindow <= 0 {
		cfg.PostCombatGraceWindow = postCombatGrace
	}
	return &Cache{cfg: cfg}
}

// Current returns the most recent encounter, or nil if none exists yet.
func (c *Cache) Current() *Encounter {
	if len(c.encounters) == 0 {
		return nil
	}
	return c.encounters[len(c.encounters)-1]
}

// Encounters returns the bounded history, oldest first.
func (c *Cache) Encounters() []*Encounter {
	return append([]*Encounter(nil), c.encounters...)
}

func (c *Cache) pushEncounter() *Encounter {
	enc := newEncounter(c.nextEncounterID, c.Player)
	c.nextEncounterID++
	c.encounters = append(c.encounters, enc)
	if len(c.encounters) > c.cfg.EncounterHistory {
		c.encounters = c.encounters[len(c.encounters)-c.cfg.EncounterHistory:]
	}
	return enc
}

// clearRosterEffects drops every active EffectInstance on every tracked
// encounter, used on area transitions per §4.4 rule 1.
func (c *Cache) clearRosterEffects() {
	for _, enc := range c.encounters {
		for _, r := range enc.entities {
			r.effects = r.effects[:0]
		}
	}
}

// Process applies one CombatEvent to the cache and returns the signals it
// produces. It implements §4.4 rules 1 through 11 and the shield
// attribution algorithm of §4.6.
func Process(event model.CombatEvent, cache *Cache, shieldGrace time.Duration) []model.GameSignal {
	var signals []model.GameSignal

	switch event.Kind {
	case model.EventAreaEntered:
		cache.Area = model.AreaInfo{
			AreaID:     event.Source.LogID, // area id carried in source.LogID by convention
			EnteredAt:  event.Timestamp,
			Generation: cache.Area.Generation + 1,
		}
		cache.clearRosterEffects()
		signals = append(signals, model.GameSignal{
			Kind:      model.SignalAreaEntered,
			Timestamp: event.Timestamp,
			AreaID:    cache.Area.AreaID,
		})

	case model.EventEnterCombat:
		enc := cache.Current()
		if enc == nil || enc.State != StateNotStarted {
			if enc != nil && enc.State == StatePostCombat {
				enc.State = StateFinished
				enc.FinishedAt = event.Timestamp
				signals = append(signals, model.GameSignal{
					Kind:        model.SignalCombatEnded,
					Timestamp:   event.Timestamp,
					EncounterID: enc.ID,
				})
			}
			enc = cache.pushEncounter()
		}
		enc.State = StateInCombat
		enc.EnterCombatAt = event.Timestamp
		signals = append(signals, model.GameSignal{
			Kind:        model.SignalCombatStarted,
			Timestamp:   event.Timestamp,
			EncounterID: enc.ID,
		})

	case model.EventExitCombat:
		enc := cache.Current()
		if enc != nil && enc.State == StateInCombat {
			enc.State = StatePostCombat
			enc.ExitCombatAt = event.Timestamp
		}

	case model.EventDamage:
		enc := currentCombatEncounter(cache, event.Timestamp)
		if enc != nil {
			src := enc.entity(event.Source.LogID)
			src.acc.DamageDealt += event.Details.DamageAmount
			src.acc.DamageDealtEffective += event.Details.DamageEffective
			src.acc.HitCount++
			tgt := enc.entity(event.Target.LogID)
			tgt.acc.DamageReceived += event.Details.DamageEffective

			if event.Details.DamageAbsorbed > 0 {
				attributeShield(enc, event, shieldGrace)
			}
		}

	case model.EventHeal:
		enc := currentCombatEncounter(cache, event.Timestamp)
		if enc != nil {
			src := enc.entity(event.Source.LogID)
			src.acc.HealingDone += event.Details.HealAmount
			src.acc.HealingEffective += event.Details.HealEffective
			tgt := enc.entity(event.Target.LogID)
			tgt.acc.HealingReceived += event.Details.HealEffective
		}

	case model.EventThreat:
		enc := currentCombatEncounter(cache, event.Timestamp)
		if enc != nil {
			src := enc.entity(event.Source.LogID)
			src.acc.ThreatGenerated += event.Details.Threat
		}

	case model.EventEffectApplied:
		enc := cache.Current()
		if enc != nil {
			tgt := enc.entity(event.Target.LogID)
			tgt.effects = append(tgt.effects, model.EffectInstance{
				EffectID:  event.Effect.ID,
				SourceID:  event.Source.LogID,
				TargetID:  event.Target.LogID,
				AppliedAt: event.Timestamp,
				IsShield:  model.IsShieldEffect(event.Effect.ID),
			})
		}
		signals = append(signals, model.GameSignal{
			Kind:      model.SignalEffectApplied,
			Timestamp: event.Timestamp,
			EffectID:  event.Effect.ID,
			SourceID:  event.Source.LogID,
			TargetID:  event.Target.LogID,
		})

	case model.EventEffectRemoved:
		enc := cache.Current()
		if enc != nil {
			tgt := enc.entity(event.Target.LogID)
			if inst := latestUnremoved(tgt.effects, event.Effect.ID, event.Source.LogID); inst != nil {
				inst.RemovedAt = event.Timestamp
				inst.HasRemoved = true
			}
		}
		signals = append(signals, model.GameSignal{
			Kind:      model.SignalEffectRemoved,
			Timestamp: event.Timestamp,
			EffectID:  event.Effect.ID,
			SourceID:  event.Source.LogID,
			TargetID:  event.Target.LogID,
		})

	case model.EventAbilityActivated:
		signals = append(signals, model.GameSignal{
			Kind:      model.SignalAbilityActivated,
			Timestamp: event.Timestamp,
			AbilityID: event.Ability.ID,
			SourceID:  event.Source.LogID,
		})

	case model.EventDeath:
		enc := cache.Current()
		allDead := false
		if enc != nil {
			tgt := enc.entity(event.Target.LogID)
			tgt.isDead = true
			if event.Target.Type == model.EntityPlayer {
				allDead = allPlayersDead(enc)
				enc.AllPlayersDead = allDead
			}
		}
		signals = append(signals, model.GameSignal{
			Kind:           model.SignalEntityDeath,
			Timestamp:      event.Timestamp,
			EntityID:       event.Target.LogID,
			AllPlayersDead: allDead,
		})

	case model.EventDisciplineChanged:
		wasInitialized := cache.Player.Initialized()
		cache.Player.ID = event.Source.LogID
		cache.Player.Name = event.Source.Name
		cache.Player.ClassID = event.Ability.ID
		cache.Player.ClassName = event.Ability.Name
		cache.Player.DisciplineID = event.Effect.ID
		cache.Player.DisciplineName = event.Effect.Name
		if !wasInitialized && cache.Player.Initialized() {
			signals = append(signals, model.GameSignal{
				Kind:       model.SignalPlayerInitialized,
				Timestamp:  event.Timestamp,
				EntityID:   cache.Player.ID,
				PlayerName: cache.Player.Name,
			})
		}
	}

	finalizePostCombat(cache, event.Timestamp, &signals)

	return signals
}

// currentCombatEncounter returns the encounter events of type Damage/Heal/
// Threat should land in: an InCombat encounter, or a PostCombat encounter
// still within its grace window.
func currentCombatEncounter(cache *Cache, at time.Time) *Encounter {
	enc := cache.Current()
	if enc == nil {
		return nil
	}
	switch enc.State {
	case StateInCombat:
		return enc
	case StatePostCombat:
		if at.Sub(enc.ExitCombatAt) <= cache.cfg.PostCombatGraceWindow {
			return enc
		}
	}
	return nil
}

// finalizePostCombat transitions a PostCombat encounter to Finished once a
// non-damage event arrives after its grace window has elapsed, per §4.4
// rule 3, emitting CombatEnded exactly once.
func finalizePostCombat(cache *Cache, at time.Time, signals *[]model.GameSignal) {
	enc := cache.Current()
	if enc == nil || enc.State != StatePostCombat {
		return
	}
	if at.Sub(enc.ExitCombatAt) > cache.cfg.PostCombatGraceWindow {
		enc.State = StateFinished
		enc.FinishedAt = at
		*signals = append(*signals, model.GameSignal{
			Kind:        model.SignalCombatEnded,
			Timestamp:   at,
			EncounterID: enc.ID,
		})
	}
}

// allPlayersDead reports whether every rostered entity in enc has died. The
// roster does not distinguish players from NPCs, so this approximates the
// §4.4 rule 10 check against all tracked entities, NPCs included.
func allPlayersDead(enc *Encounter) bool {
	if len(enc.entities) == 0 {
		return false
	}
	for _, r := range enc.entities {
		if !r.isDead {
			return false
		}
	}
	return true
}

func latestUnremoved(effects []model.EffectInstance, effectID, sourceID int64) *model.EffectInstance {
	var best *model.EffectInstance
	for i := range effects {
		e := &effects[i]
		if e.EffectID != effectID || e.SourceID != sourceID || e.HasRemoved {
			continue
		}
		if best == nil || e.AppliedAt.After(best.AppliedAt) {
			best = e
		}
	}
	return best
}

// attributeShield implements the §4.6 shield-attribution algorithm.
func attributeShield(enc *Encounter, event model.CombatEvent, grace time.Duration) {
	tgt := enc.entity(event.Target.LogID)

	var candidates []*model.EffectInstance
	for i := range tgt.effects {
		e := &tgt.effects[i]
		if !e.IsShield || e.HasAbsorbed {
			continue
		}
		if !e.AppliedAt.Before(event.Timestamp) {
			continue
		}
		if !e.ActiveAt(event.Timestamp, grace) {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return
	}

	sortByAppliedAt(candidates)

	credit := func(shield *model.EffectInstance, portion int64) {
		src := enc.entity(shield.SourceID)
		src.acc.ShieldingGiven += portion
		if shield.HasRemoved && event.Details.DamageEffective > 0 {
			shield.HasAbsorbed = true
		}
	}

	if len(candidates) == 1 {
		credit(candidates[0], event.Details.DamageAbsorbed)
		return
	}

	total := event.Details.DamageAmount
	absorbed := event.Details.DamageAbsorbed
	var first, second int64
	if absorbed >= total {
		first, second = absorbed, 0
	} else {
		first, second = total-absorbed, absorbed
	}
	credit(candidates[0], first)
	credit(candidates[1], second)
}

func sortByAppliedAt(s []*model.EffectInstance) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].AppliedAt.Before(s[j-1].AppliedAt); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
