package effects

import (
	"encoding/json"
	"os"

	"combatlog/internal/intern"
	"combatlog/internal/model"
)

// rawDefinition mirrors the on-disk JSON shape for one EffectDefinition.
// Field names are snake_case to match the rest of the pipeline's on-disk
// conventions (and the original game data this pipeline's spec distills).
type rawDefinition struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DisplayText string  `json:"display_text"`
	Enabled     bool    `json:"enabled"`
	Trigger     string  `json:"trigger"` // "effect_applied" | "ability_cast"
	EffectIDs   []int64 `json:"effect_ids,omitempty"`
	AbilityIDs  []int64 `json:"ability_ids,omitempty"`
	SourceID    int64   `json:"source_id,omitempty"`
	TargetID    int64   `json:"target_id,omitempty"`

	RefreshAbilities []int64 `json:"refresh_abilities,omitempty"`
	DurationSecs     float64 `json:"duration_secs,omitempty"`

	IsAlert   bool   `json:"is_alert,omitempty"`
	AlertText string `json:"alert_text,omitempty"`
	AlertOn   string `json:"alert_on,omitempty"` // "none" | "on_apply" | "on_expire"

	AudioEnabled bool   `json:"audio_enabled,omitempty"`
	AudioFile    string `json:"audio_file,omitempty"`

	IgnoreEffectRemoved bool `json:"ignore_effect_removed,omitempty"`
	PersistPastDeath    bool `json:"persist_past_death,omitempty"`
	TrackOutsideCombat  bool `json:"track_outside_combat,omitempty"`
}

// LoadDefinitions reads a JSON array of definitions from path and builds a
// DefinitionSet against interner. A malformed file is a *model.ConfigError;
// the caller decides whether that is fatal for the whole load or just this
// one file.
func LoadDefinitions(path string, interner *intern.Interner) (DefinitionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionSet{}, &model.ConfigError{Kind: model.ConfigErrorIO, Path: path, Err: err}
	}

	var raws []rawDefinition
	if err := json.Unmarshal(data, &raws); err != nil {
		return DefinitionSet{}, &model.ConfigError{Kind: model.ConfigErrorParse, Path: path, Err: err}
	}

	defs := make([]EffectDefinition, 0, len(raws))
	for _, r := range raws {
		defs = append(defs, EffectDefinition{
			ID:                  r.ID,
			Name:                interner.Intern(r.Name),
			DisplayText:         r.DisplayText,
			Enabled:             r.Enabled,
			Trigger:             parseTrigger(r.Trigger),
			Effects:             EffectSelector{EffectIDs: r.EffectIDs},
			Abilities:           AbilitySelector{AbilityIDs: r.AbilityIDs},
			Filter:              EntityFilter{SourceID: r.SourceID, TargetID: r.TargetID},
			RefreshAbilities:    r.RefreshAbilities,
			DurationSecs:        r.DurationSecs,
			IsAlert:             r.IsAlert,
			AlertText:           r.AlertText,
			AlertOn:             parseAlertOn(r.AlertOn),
			AudioEnabled:        r.AudioEnabled,
			AudioFile:           r.AudioFile,
			IgnoreEffectRemoved: r.IgnoreEffectRemoved,
			PersistPastDeath:    r.PersistPastDeath,
			TrackOutsideCombat:  r.TrackOutsideCombat,
		})
	}
	return DefinitionSet{Definitions: defs}, nil
}

func parseTrigger(s string) TriggerKind {
	if s == "ability_cast" {
		return TriggerAbilityCast
	}
	return TriggerEffectApplied
}

func parseAlertOn(s string) AlertOn {
	switch s {
	case "on_apply":
		return AlertOnApply
	case "on_expire":
		return AlertOnExpire
	default:
		return AlertNone
	}
}
