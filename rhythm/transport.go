package rhythm

import (
	"sync"
	"time"

	"github.com/robmorgan/tempomap/audio"
	"github.com/robmorgan/tempomap/beats"
	"k8s.io/utils/clock"
)

// Transport is a play head moving over a track. It turns the clock into frame positions and frame positions into
// snapshots of the track's tempo map.
type Transport struct {
	mu    sync.Mutex
	clock clock.PassiveClock

	beats         *beats.Beats
	beatsPerBar   int
	barsPerPhrase int

	// position the play head had at startTime
	startTime     time.Time
	startPosition audio.FramePos
	rate          float64
}

// NewTransport creates a stopped transport at frame 0.
func NewTransport(clk clock.PassiveClock, b *beats.Beats, beatsPerBar int, barsPerPhrase int) *Transport {
	return &Transport{
		clock:         clk,
		beats:         b,
		beatsPerBar:   beatsPerBar,
		barsPerPhrase: barsPerPhrase,
		startTime:     clk.Now(),
		startPosition: 0,
		rate:          0,
	}
}

// GetBeats returns the tempo map the transport currently follows.
func (t *Transport) GetBeats() *beats.Beats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.beats
}

// SetBeats replaces the tempo map, e.g. after the track was analysed again. The play head does not move.
func (t *Transport) SetBeats(b *beats.Beats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.beats = b
}

// GetRate returns the playback rate; 1 is normal speed and 0 is stopped.
func (t *Transport) GetRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rate
}

// SetRate sets a new playback rate. The start point is rebased so the current position is unaffected by the change.
func (t *Transport) SetRate(rate float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	instant := t.clock.Now()
	t.startPosition = t.positionAt(instant)
	t.startTime = instant
	t.rate = rate
}

// Play is SetRate(1).
func (t *Transport) Play() {
	t.SetRate(1)
}

// Stop is SetRate(0).
func (t *Transport) Stop() {
	t.SetRate(0)
}

// Seek moves the play head to position without changing the rate.
func (t *Transport) Seek(position audio.FramePos) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = t.clock.Now()
	t.startPosition = position
}

// SeekToBeat moves the play head onto the nth beat relative to the current position. See beats.Beats.FindNthBeat.
func (t *Transport) SeekToBeat(n int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	instant := t.clock.Now()
	target := t.beats.FindNthBeat(t.positionAt(instant), n)
	if !target.IsValid() {
		return false
	}
	t.startTime = instant
	t.startPosition = target
	return true
}

// Position returns the current play head position.
func (t *Transport) Position() audio.FramePos {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.positionAt(t.clock.Now())
}

// GetSnapshot returns a snapshot of the tempo map at the play head position addedDuration from now.
func (t *Transport) GetSnapshot(addedDuration time.Duration) (*TrackSnapshot, error) {
	t.mu.Lock()
	b := t.beats
	position := t.positionAt(t.clock.Now().Add(addedDuration))
	t.mu.Unlock()

	return NewTrackSnapshot(b, position, t.beatsPerBar, t.barsPerPhrase)
}

// positionAt must be called with mu held.
func (t *Transport) positionAt(instant time.Time) audio.FramePos {
	elapsed := instant.Sub(t.startTime).Seconds()
	return t.startPosition.Add(audio.FrameDiff(elapsed * t.rate * t.beats.SampleRate().Value()))
}
