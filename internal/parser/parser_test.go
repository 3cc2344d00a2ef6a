package parser

import (
	"testing"
	"time"

	"combatlog/internal/intern"
	"combatlog/internal/model"
)

func mustParse(t *testing.T, p *Parser, line string) model.CombatEvent {
	t.Helper()
	ev, err := p.ParseLine(line, 1)
	if err != nil {
		t.Fatalf("ParseLine(%q): %v", line, err)
	}
	return ev
}

func TestParseSessionDate(t *testing.T) {
	got, err := ParseSessionDate("combat_2026-07-30_21_04_11_123456.txt")
	if err != nil {
		t.Fatalf("ParseSessionDate: %v", err)
	}
	want := time.Date(2026, 7, 30, 21, 4, 11, 123456000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseSessionDateRejectsBadName(t *testing.T) {
	if _, err := ParseSessionDate("not_a_log.txt"); err == nil {
		t.Fatal("expected error for malformed filename")
	}
}

func TestParseLineDamageEvent(t *testing.T) {
	in := intern.New()
	p := New(in, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))

	line := "[21:04:11.123] [Player One|player|1001] [Boss|npc|2002|500] [Saber Strike|3001] [_] [Damage,amount=1500,absorbed=200,effective=1300,crit=1,attacktype=melee]"
	ev := mustParse(t, p, line)

	if ev.Kind != model.EventDamage {
		t.Fatalf("Kind = %v, want Damage", ev.Kind)
	}
	if in.Resolve(ev.Source.Name) != "Player One" {
		t.Fatalf("source name = %q", in.Resolve(ev.Source.Name))
	}
	if ev.Source.LogID != 1001 || ev.Source.Type != model.EntityPlayer {
		t.Fatalf("bad source: %+v", ev.Source)
	}
	if ev.Target.LogID != 2002 || !ev.Target.HasNpc || ev.Target.NpcID != 500 {
		t.Fatalf("bad target: %+v", ev.Target)
	}
	if ev.Ability.ID != 3001 || in.Resolve(ev.Ability.Name) != "Saber Strike" {
		t.Fatalf("bad ability: %+v", ev.Ability)
	}
	if ev.Details.DamageAmount != 1500 || ev.Details.DamageAbsorbed != 200 || ev.Details.DamageEffective != 1300 {
		t.Fatalf("bad details: %+v", ev.Details)
	}
	if !ev.Details.Critical {
		t.Fatalf("expected Critical = true")
	}
}

func TestParseLineNoEntity(t *testing.T) {
	in := intern.New()
	p := New(in, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))

	line := "[00:00:00.000] [_] [_] [_] [_] [AreaEntered]"
	ev := mustParse(t, p, line)
	if ev.Kind != model.EventAreaEntered {
		t.Fatalf("Kind = %v, want AreaEntered", ev.Kind)
	}
	if ev.Source.LogID != 0 || ev.Source.Name != intern.EmptyIStr() {
		t.Fatalf("expected empty source, got %+v", ev.Source)
	}
}

func TestParseLineMidnightCrossing(t *testing.T) {
	in := intern.New()
	start := time.Date(2026, 7, 30, 23, 59, 58, 0, time.UTC)
	p := New(in, start)

	first := mustParse(t, p, "[23:59:59.000] [_] [_] [_] [_] [EnterCombat]")
	second := mustParse(t, p, "[00:00:01.000] [_] [_] [_] [_] [ExitCombat]")

	if first.Timestamp.Day() != 30 {
		t.Fatalf("first event day = %d, want 30", first.Timestamp.Day())
	}
	if second.Timestamp.Day() != 31 {
		t.Fatalf("second event day = %d, want 31 (midnight crossing)", second.Timestamp.Day())
	}
	if !second.Timestamp.After(first.Timestamp) {
		t.Fatalf("expected monotonic timestamps across midnight, got %v then %v", first.Timestamp, second.Timestamp)
	}
}

func TestParseLineMalformedMissingBracket(t *testing.T) {
	in := intern.New()
	p := New(in, time.Now())
	_, err := p.ParseLine("not a bracketed line at all", 7)
	if err == nil {
		t.Fatal("expected parse error")
	}
	var perr *model.ParseError
	if !asParseError(err, &perr) {
		t.Fatalf("expected *model.ParseError, got %T", err)
	}
	if perr.LineNumber != 7 {
		t.Fatalf("LineNumber = %d, want 7", perr.LineNumber)
	}
}

func TestParseLineUnknownKind(t *testing.T) {
	in := intern.New()
	p := New(in, time.Now())
	_, err := p.ParseLine("[00:00:00.000] [_] [_] [_] [_] [NotARealKind]", 1)
	if err == nil {
		t.Fatal("expected parse error for unknown kind")
	}
}

func TestParseNegativeZeroTreatedAsZero(t *testing.T) {
	in := intern.New()
	p := New(in, time.Now())
	ev := mustParse(t, p, "[00:00:00.000] [_] [_] [_] [_] [Damage,amount=-0,absorbed=0,effective=-0]")
	if ev.Details.DamageAmount != 0 || ev.Details.DamageEffective != 0 {
		t.Fatalf("expected -0 normalized to 0, got %+v", ev.Details)
	}
}

func asParseError(err error, target **model.ParseError) bool {
	if pe, ok := err.(*model.ParseError); ok {
		*target = pe
		return true
	}
	return false
}
