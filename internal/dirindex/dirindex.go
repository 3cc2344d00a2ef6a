// Package dirindex enumerates combat log files in a directory, tracks which
// one is newest, and coordinates a tail.Tailer's lifecycle across file
// creation/removal events so exactly one file is ever tailed at a time.
package dirindex

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"combatlog/internal/parser"
)

// Entry is one discovered combat log file.
type Entry struct {
	Path      string
	Timestamp time.Time
}

// List enumerates combat_*.txt files directly under dir, parses each
// filename's session timestamp, and returns them sorted oldest first.
// Files whose name does not match the combat_ naming convention are
// skipped silently.
func List(dir string) ([]Entry, error) {
	infos, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := info.Name()
		if !strings.HasPrefix(name, "combat_") || !strings.HasSuffix(name, ".txt") {
			continue
		}
		ts, err := parser.ParseSessionDate(name)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Path: filepath.Join(dir, name), Timestamp: ts})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
	return entries, nil
}

// Newest returns the most recently started log file among entries, or
// ("", false) if entries is empty.
func Newest(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[len(entries)-1], true
}

// DirectoryEventKind is the closed set of filesystem notifications the
// driver reacts to.
type DirectoryEventKind uint8

const (
	EventNewFile DirectoryEventKind = iota
	EventFileRemoved
)

// DirectoryEvent is a single filesystem change the embedding watcher
// observed. The driver does not watch the filesystem itself (that is a
// platform concern for the embedding application); it only reacts.
type DirectoryEvent struct {
	Kind DirectoryEventKind
	Path string
}

// Driver tracks the active file and tells the caller when to start or stop
// tailing. It does not own a goroutine: Apply is called synchronously by
// the embedding application's watch loop, keeping this package free of any
// platform-specific filesystem-watching dependency.
type Driver struct {
	dir    string
	active string
}

// New constructs a Driver rooted at dir.
func New(dir string) *Driver {
	return &Driver{dir: dir}
}

// Action tells the caller what to do in response to an Apply call.
type Action struct {
	StopActive  bool
	StartPath   string
	ClearData   bool
}

// Active returns the path currently considered newest, or "" if none.
func (d *Driver) Active() string {
	return d.active
}

// Bootstrap scans the directory once and returns the action to start
// tailing the newest file found, if any.
func (d *Driver) Bootstrap() (Action, error) {
	entries, err := List(d.dir)
	if err != nil {
		return Action{}, err
	}
	newest, ok := Newest(entries)
	if !ok {
		return Action{}, nil
	}
	d.active = newest.Path
	return Action{StartPath: newest.Path, ClearData: true}, nil
}

// Apply reacts to one DirectoryEvent per §4.10.
func (d *Driver) Apply(ev DirectoryEvent) (Action, error) {
	switch ev.Kind {
	case EventNewFile:
		becomesNewest, err := d.isNewest(ev.Path)
		if err != nil {
			return Action{}, err
		}
		if !becomesNewest {
			return Action{}, nil
		}
		stop := d.active != ""
		d.active = ev.Path
		return Action{StopActive: stop, StartPath: ev.Path, ClearData: true}, nil

	case EventFileRemoved:
		if ev.Path != d.active {
			return Action{}, nil
		}
		entries, err := List(d.dir)
		if err != nil {
			return Action{}, err
		}
		var remaining []Entry
		for _, e := range entries {
			if e.Path != ev.Path {
				remaining = append(remaining, e)
			}
		}
		next, ok := Newest(remaining)
		if !ok {
			d.active = ""
			return Action{StopActive: true, ClearData: true}, nil
		}
		d.active = next.Path
		return Action{StopActive: true, StartPath: next.Path, ClearData: true}, nil
	}
	return Action{}, nil
}

// isNewest reports whether path's session timestamp is at or after the
// currently active file's.
func (d *Driver) isNewest(path string) (bool, error) {
	if d.active == "" {
		return true, nil
	}
	pathTS, err := parser.ParseSessionDate(filepath.Base(path))
	if err != nil {
		return false, err
	}
	activeTS, err := parser.ParseSessionDate(filepath.Base(d.active))
	if err != nil {
		return true, nil
	}
	return !pathTS.Before(activeTS), nil
}
