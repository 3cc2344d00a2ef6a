// Package parser turns one raw combat log line into a model.CombatEvent.
//
// Line grammar (bracketed, positional):
//
//	[HH:MM:SS.fff] [sourceField] [targetField] [abilityField] [effectField] [detailsField]
//
// sourceField/targetField: "Name|Type|LogID" or "Name|Type|LogID|NpcID" for
// NPCs, Type one of player/npc/companion/other. "_" means no entity.
//
// abilityField/effectField: "Name|ID" or "_" for none.
//
// detailsField: "Kind,key=value,key=value,..." where Kind selects the
// CombatEvent's Kind and the remaining key=value pairs populate its details.
// Recognized kinds: AreaEntered, EnterCombat, ExitCombat, Damage, Heal,
// Threat, EffectApplied, EffectRemoved, AbilityActivated, Death, Discipline.
package parser

import (
	"strconv"
	"strings"
	"time"

	"combatlog/internal/intern"
	"combatlog/internal/model"
)

// Parser turns lines into CombatEvents. It carries just enough state to
// resolve the §4.3 midnight-crossing rule: timestamps in the log are
// wall-clock only, so the parser tracks a date component derived from the
// log file's stem and bumps it whenever a new line's time-of-day is
// strictly less than the previous line's.
type Parser struct {
	interner *intern.Interner
	date     time.Time // midnight of the current date component
	lastTOD  time.Duration
	hasLast  bool
}

// New creates a Parser whose date component starts at sessionDate (the date
// derived from the log filename, see ParseSessionDate).
func New(interner *intern.Interner, sessionDate time.Time) *Parser {
	return &Parser{
		interner: interner,
		date:     time.Date(sessionDate.Year(), sessionDate.Month(), sessionDate.Day(), 0, 0, 0, 0, sessionDate.Location()),
	}
}

// ParseSessionDate extracts the session start date from a log filename of
// the form "combat_YYYY-MM-DD_HH_MM_SS_FFFFFF.txt".
func ParseSessionDate(filename string) (time.Time, error) {
	base := strings.TrimSuffix(filename, ".txt")
	const prefix = "combat_"
	if !strings.HasPrefix(base, prefix) {
		return time.Time{}, &model.ParseError{Reason: "filename missing combat_ prefix: " + filename}
	}
	rest := strings.TrimPrefix(base, prefix)
	// Go only reads a fractional-seconds field after '.' or ',', so the
	// final '_' before the microseconds is swapped for a '.'.
	if i := strings.LastIndexByte(rest, '_'); i >= 0 {
		rest = rest[:i] + "." + rest[i+1:]
	}
	const layout = "2006-01-02_15_04_05.000000"
	t, err := time.Parse(layout, rest)
	if err != nil {
		return time.Time{}, &model.ParseError{Reason: "unrecognized session filename: " + filename}
	}
	return t, nil
}

// ParseLine parses one raw line. On malformed input it returns a
// *model.ParseError and the pipeline is expected to count it and continue.
func (p *Parser) ParseLine(raw string, lineNumber int) (model.CombatEvent, error) {
	fields, err := splitBracketed(raw)
	if err != nil {
		return model.CombatEvent{}, &model.ParseError{LineNumber: lineNumber, Reason: err.Error()}
	}
	if len(fields) != 6 {
		return model.CombatEvent{}, &model.ParseError{LineNumber: lineNumber, Reason: "expected 6 bracketed fields, got " + strconv.Itoa(len(fields))}
	}

	ts, err := p.parseTimestamp(fields[0])
	if err != nil {
		return model.CombatEvent{}, &model.ParseError{LineNumber: lineNumber, Reason: err.Error()}
	}

	source, err := p.parseEntity(fields[1])
	if err != nil {
		return model.CombatEvent{}, &model.ParseError{LineNumber: lineNumber, Reason: err.Error()}
	}
	target, err := p.parseEntity(fields[2])
	if err != nil {
		return model.CombatEvent{}, &model.ParseError{LineNumber: lineNumber, Reason: err.Error()}
	}

	ability := p.parseAbility(fields[3])
	effect := p.parseEffect(fields[4])

	kind, details, kindErr := p.parseDetails(fields[5])
	if kindErr != nil {
		return model.CombatEvent{}, &model.ParseError{LineNumber: lineNumber, Reason: kindErr.Error()}
	}

	return model.CombatEvent{
		Kind:       kind,
		Timestamp:  ts,
		Source:     source,
		Target:     target,
		Ability:    ability,
		Effect:     effect,
		Details:    details,
		LineNumber: lineNumber,
		RawLine:    raw,
	}, nil
}

// splitBracketed splits a line of the form "[a] [b] [c] ..." into its
// bracketed contents, tolerating no whitespace padding quirks.
func splitBracketed(raw string) ([]string, error) {
	var fields []string
	rest := strings.TrimSpace(raw)
	for len(rest) > 0 {
		if rest[0] != '[' {
			return nil, errMalformed("line does not start with '['")
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, errMalformed("unterminated bracketed field")
		}
		fields = append(fields, rest[1:end])
		rest = strings.TrimSpace(rest[end+1:])
	}
	if len(fields) == 0 {
		return nil, errMalformed("empty line")
	}
	return fields, nil
}

type malformedError string

func (e malformedError) Error() string { return string(e) }

func errMalformed(msg string) error { return malformedError(msg) }

func (p *Parser) parseTimestamp(field string) (time.Time, error) {
	tod, err := time.Parse("15:04:05.000", field)
	if err != nil {
		return time.Time{}, errMalformed("bad timestamp: " + field)
	}
	d := time.Duration(tod.Hour())*time.Hour +
		time.Duration(tod.Minute())*time.Minute +
		time.Duration(tod.Second())*time.Second +
		time.Duration(tod.Nanosecond())

	if p.hasLast && d < p.lastTOD {
		p.date = p.date.AddDate(0, 0, 1)
	}
	p.lastTOD = d
	p.hasLast = true

	return p.date.Add(d), nil
}

func (p *Parser) parseEntity(field string) (model.EntityRef, error) {
	if field == "_" {
		return model.EntityRef{}, nil
	}
	parts := strings.Split(field, "|")
	if len(parts) < 3 {
		return model.EntityRef{}, errMalformed("bad entity field: " + field)
	}
	logID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return model.EntityRef{}, errMalformed("bad entity log id: " + field)
	}
	ref := model.EntityRef{
		LogID: logID,
		Name:  p.interner.Intern(parts[0]),
		Type:  parseEntityType(parts[1]),
	}
	if len(parts) >= 4 {
		npcID, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return model.EntityRef{}, errMalformed("bad npc id: " + field)
		}
		ref.NpcID = npcID
		ref.HasNpc = true
	}
	return ref, nil
}

func parseEntityType(s string) model.EntityType {
	switch s {
	case "player":
		return model.EntityPlayer
	case "npc":
		return model.EntityNpc
	case "companion":
		return model.EntityCompanion
	default:
		return model.EntityOther
	}
}

func (p *Parser) parseAbility(field string) model.AbilityRef {
	if field == "_" {
		return model.AbilityRef{}
	}
	parts := strings.SplitN(field, "|", 2)
	ref := model.AbilityRef{Name: p.interner.Intern(parts[0])}
	if len(parts) == 2 {
		if id, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			ref.ID = id
		}
	}
	return ref
}

func (p *Parser) parseEffect(field string) model.EffectRef {
	if field == "_" {
		return model.EffectRef{}
	}
	parts := strings.SplitN(field, "|", 2)
	ref := model.EffectRef{Name: p.interner.Intern(parts[0])}
	if len(parts) == 2 {
		if id, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			ref.ID = id
		}
	}
	return ref
}

func (p *Parser) parseDetails(field string) (model.EventKind, model.EventDetails, error) {
	parts := strings.Split(field, ",")
	if len(parts) == 0 || parts[0] == "" {
		return model.EventUnknown, model.EventDetails{}, errMalformed("empty details field")
	}
	kind := parseKind(parts[0])
	if kind == model.EventUnknown {
		return model.EventUnknown, model.EventDetails{}, errMalformed("unknown event kind: " + parts[0])
	}

	var details model.EventDetails
	for _, kv := range parts[1:] {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch key {
		case "amount":
			switch kind {
			case model.EventDamage:
				details.DamageAmount = parseInt64(val)
			case model.EventHeal:
				details.HealAmount = parseInt64(val)
			case model.EventThreat:
				details.Threat = parseFloat(val)
			}
		case "absorbed":
			details.DamageAbsorbed = parseInt64(val)
		case "effective":
			switch kind {
			case model.EventHeal:
				details.HealEffective = parseInt64(val)
			default:
				details.DamageEffective = parseInt64(val)
			}
		case "crit":
			details.Critical = val == "1" || val == "true"
		case "attacktype":
			details.AttackType = val
		}
	}

	return kind, details, nil
}

func parseKind(s string) model.EventKind {
	switch s {
	case "AreaEntered":
		return model.EventAreaEntered
	case "EnterCombat":
		return model.EventEnterCombat
	case "ExitCombat":
		return model.EventExitCombat
	case "Damage":
		return model.EventDamage
	case "Heal":
		return model.EventHeal
	case "Threat":
		return model.EventThreat
	case "EffectApplied":
		return model.EventEffectApplied
	case "EffectRemoved":
		return model.EventEffectRemoved
	case "AbilityActivated":
		return model.EventAbilityActivated
	case "Death":
		return model.EventDeath
	case "Discipline":
		return model.EventDisciplineChanged
	default:
		return model.EventUnknown
	}
}

// parseInt64 treats negative zero the same as zero, per §4.3.
func parseInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	if v == 0 {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
