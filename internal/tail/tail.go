// Package tail turns a filesystem path into a lazy sequence of line strings
// with byte positions, handling rotation and truncation the way a growing
// combat log written by the game client needs.
package tail

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"combatlog/internal/config"
	"combatlog/internal/telemetry"
)

// ErrFileRemoved is returned by Run when the tailed path disappears.
var ErrFileRemoved = errors.New("tail: file removed")

// readChunkSize is the size of each raw read against the underlying file.
// Lines are assembled from chunks in a growable pending buffer so a line
// split across two reads (the common case when tailing at EOF) is never
// lost, unlike a plain bufio.Reader.ReadBytes('\n') loop.
const readChunkSize = 64 * 1024

// Line is one line read from the tailed file along with the byte offset
// immediately after it, so a caller can restart from that position.
type Line struct {
	Text   string
	EndPos int64
}

// NoticeKind distinguishes the out-of-band conditions the tailer can report
// while otherwise still running.
type NoticeKind uint8

const (
	// NoticeFileReset is emitted when the file shrank below the last read
	// position or its identity changed (rotation): the tailer re-opened
	// from offset 0.
	NoticeFileReset NoticeKind = iota
)

// Tailer reads a single growing (or rotating) file line by line.
type Tailer struct {
	path    string
	cfg     config.TailConfig
	logger  telemetry.Logger
	metrics *telemetry.Metrics
	limiter *rate.Limiter
}

// New constructs a Tailer for path using cfg's poll bounds.
func New(path string, cfg config.TailConfig, logger telemetry.Logger, metrics *telemetry.Metrics) *Tailer {
	if logger == nil {
		logger = telemetry.Nop
	}
	return &Tailer{
		path:    path,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		limiter: rate.NewLimiter(rate.Every(cfg.PollMin), 1),
	}
}

// Run reads from startOffset until ctx is canceled or the file disappears,
// sending each complete line on lines and each rotation/truncation event on
// notices. Run never buffers more than one line at a time for delivery and
// is restartable from any EndPos it has emitted. It returns ErrFileRemoved if
// the path disappears, or ctx.Err() on cancellation.
func (t *Tailer) Run(ctx context.Context, startOffset int64, lines chan<- Line, notices chan<- NoticeKind) error {
	f, pos, err := t.openAt(startOffset)
	if err != nil {
		return err
	}
	defer f.Close()

	pending := make([]byte, 0, readChunkSize)
	chunk := make([]byte, readChunkSize)
	currentPoll := t.cfg.PollMin

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := f.Read(chunk)
		if n > 0 {
			pending = append(pending, chunk[:n]...)

			pending, err = t.drain(ctx, pending, &pos, lines)
			if err != nil {
				return err
			}

			currentPoll = t.cfg.PollMin
			t.limiter.SetLimit(rate.Every(currentPoll))
			continue
		}

		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return &transientReadError{path: t.path, err: readErr}
		}

		// At EOF with no new bytes: check for rotation/truncation first.
		reset, statErr := t.detectReset(f, pos)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				return ErrFileRemoved
			}
			return statErr
		}
		if reset {
			f.Close()
			if t.metrics != nil {
				t.metrics.TailFileResetsTotal.Inc()
			}
			t.logger.Printf("tail: %s rotated, restarting from offset 0", t.path)

			newFile, newPos, openErr := t.openAt(0)
			if openErr != nil {
				if os.IsNotExist(openErr) {
					return ErrFileRemoved
				}
				return openErr
			}
			f, pos = newFile, newPos
			defer f.Close()
			pending = pending[:0]

			select {
			case notices <- NoticeFileReset:
			case <-ctx.Done():
				return ctx.Err()
			}
			currentPoll = t.cfg.PollMin
			t.limiter.SetLimit(rate.Every(currentPoll))
			continue
		}

		// No new data yet: back off adaptively, capped at PollMax.
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
		currentPoll = nextBackoff(currentPoll, t.cfg.PollMax)
		t.limiter.SetLimit(rate.Every(currentPoll))
	}
}

// drain extracts every complete line currently in pending, emits it on
// lines, and advances *pos accordingly. It returns the leftover (possibly
// empty) unterminated remainder.
func (t *Tailer) drain(ctx context.Context, pending []byte, pos *int64, lines chan<- Line) ([]byte, error) {
	start := 0
	for {
		idx := indexByte(pending[start:], '\n')
		if idx < 0 {
			break
		}
		end := start + idx
		raw := pending[start:end]
		if len(raw) > 0 && raw[len(raw)-1] == '\r' {
			raw = raw[:len(raw)-1]
		}
		*pos += int64(end - start + 1)
		select {
		case lines <- Line{Text: toUTF8(raw), EndPos: *pos}:
		case <-ctx.Done():
			return pending, ctx.Err()
		}
		start = end + 1
	}
	remainder := append([]byte(nil), pending[start:]...)
	return remainder, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func toUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current + current/2
	if next > max {
		next = max
	}
	return next
}

func (t *Tailer) openAt(offset int64) (*os.File, int64, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, 0, err
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, 0, err
		}
	}
	return f, offset, nil
}

// detectReset reports whether the file at t.path has been rotated or
// truncated relative to the still-open handle f at read position pos.
func (t *Tailer) detectReset(f *os.File, pos int64) (bool, error) {
	openInfo, err := f.Stat()
	if err != nil {
		return false, err
	}
	pathInfo, err := os.Stat(t.path)
	if err != nil {
		return false, err
	}
	if !os.SameFile(openInfo, pathInfo) {
		return true, nil
	}
	if pathInfo.Size() < pos {
		return true, nil
	}
	return false, nil
}

type transientReadError struct {
	path string
	err  error
}

func (e *transientReadError) Error() string {
	return "tail: read " + e.path + ": " + e.err.Error()
}

func (e *transientReadError) Unwrap() error { return e.err }
