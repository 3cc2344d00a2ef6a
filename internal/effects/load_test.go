package effects

import (
	"os"
	"path/filepath"
	"testing"

	"combatlog/internal/intern"
)

func TestLoadDefinitionsParsesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "definitions.json")
	body := `[
		{"id": 1, "name": "Enrage", "display_text": "Boss enrages", "enabled": true,
		 "trigger": "effect_applied", "effect_ids": [100], "is_alert": true},
		{"id": 2, "name": "Shield Timer", "enabled": true, "trigger": "ability_cast",
		 "ability_ids": [42], "duration_secs": 15, "alert_on": "on_apply", "track_outside_combat": true}
	]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	in := intern.New()
	ds, err := LoadDefinitions(path, in)
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if len(ds.Definitions) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(ds.Definitions))
	}
	if !ds.Definitions[0].IsAlert || !ds.Definitions[0].Effects.Matches(100) {
		t.Fatalf("unexpected first definition: %+v", ds.Definitions[0])
	}
	if ds.Definitions[1].AlertOn != AlertOnApply || !ds.Definitions[1].TrackOutsideCombat {
		t.Fatalf("unexpected second definition: %+v", ds.Definitions[1])
	}
}

func TestLoadDefinitionsMissingFileIsConfigError(t *testing.T) {
	in := intern.New()
	_, err := LoadDefinitions("/nonexistent/definitions.json", in)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadDefinitionsMalformedJSONIsConfigError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not valid"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	in := intern.New()
	_, err := LoadDefinitions(path, in)
	if err == nil {
		t.Fatal("expected parse error")
	}
}
