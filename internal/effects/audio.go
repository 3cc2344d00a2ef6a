package effects

import (
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
)

// AudioPlayer plays one-shot OGG Vorbis alert sounds fired by the effect
// tracker. Grounded on the teacher's MusicPlayer decode path
// (internal/streaming/music_player.go), simplified from a continuous
// frame-pull stream to fire-and-forget playback: alert clips are short and
// never overlap the same speaker session the way background music does.
type AudioPlayer struct {
	mu          sync.Mutex
	initialized bool
}

// NewAudioPlayer constructs a player. Speaker initialization is deferred to
// the first Play call so a daemon with no alert definitions never touches
// the system audio device.
func NewAudioPlayer() *AudioPlayer {
	return &AudioPlayer{}
}

func (a *AudioPlayer) ensureInit(sr beep.SampleRate) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return nil
	}
	if err := speaker.Init(sr, sr.N(time.Second/20)); err != nil {
		return err
	}
	a.initialized = true
	return nil
}

// Play decodes path and plays it once. A missing or corrupt alert file is
// silently dropped: a bad sound asset must never stop combat processing.
func (a *AudioPlayer) Play(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	streamer, format, err := vorbis.Decode(f)
	if err != nil {
		f.Close()
		return
	}
	if err := a.ensureInit(format.SampleRate); err != nil {
		streamer.Close()
		return
	}
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		streamer.Close()
	})))
}

// PlayFired plays every alert in alerts that has audio enabled.
func (a *AudioPlayer) PlayFired(alerts []Alert) {
	for _, al := range alerts {
		if al.AudioEnabled && al.AudioFile != "" {
			a.Play(al.AudioFile)
		}
	}
}
