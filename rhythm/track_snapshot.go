package rhythm

import (
	"fmt"

	"github.com/robmorgan/tempomap/audio"
	"github.com/robmorgan/tempomap/beats"
)

// TrackSnapshot implements Snapshot on top of a tempo map. All values are computed once on construction.
type TrackSnapshot struct {
	beats         *beats.Beats
	position      audio.FramePos
	beatsPerBar   int
	barsPerPhrase int

	beat      int64
	beatPhase float64
	interval  audio.FrameDiff
}

var _ Snapshot = (*TrackSnapshot)(nil)

// InvalidSnapshotError is returned for positions and bar layouts a snapshot cannot be computed for.
type InvalidSnapshotError struct {
	Reason string
}

func (err InvalidSnapshotError) Error() string {
	return fmt.Sprintf("cannot take snapshot: %s", err.Reason)
}

// NewTrackSnapshot computes the snapshot of b at position.
func NewTrackSnapshot(b *beats.Beats, position audio.FramePos, beatsPerBar int, barsPerPhrase int) (*TrackSnapshot, error) {
	if beatsPerBar <= 0 || barsPerPhrase <= 0 {
		return nil, InvalidSnapshotError{Reason: fmt.Sprintf("invalid bar layout %d/%d", beatsPerBar, barsPerPhrase)}
	}
	it, ok := b.IteratorFrom(position)
	if !ok {
		return nil, InvalidSnapshotError{Reason: "invalid position"}
	}

	interval := it.BeatLengthFrames()
	return &TrackSnapshot{
		beats:         b,
		position:      position,
		beatsPerBar:   beatsPerBar,
		barsPerPhrase: barsPerPhrase,
		beat:          int64(it.Index()) + 1,
		beatPhase:     float64(position.Diff(it.Position()) / interval),
		interval:      interval,
	}, nil
}

func (s *TrackSnapshot) GetBeats() *beats.Beats {
	return s.beats
}

func (s *TrackSnapshot) GetTempo() audio.Bpm {
	return audio.BpmFromBeatLength(s.interval, s.beats.SampleRate())
}

func (s *TrackSnapshot) GetBeatsPerBar() int {
	return s.beatsPerBar
}

func (s *TrackSnapshot) GetBarsPerPhrase() int {
	return s.barsPerPhrase
}

func (s *TrackSnapshot) GetPosition() audio.FramePos {
	return s.position
}

func (s *TrackSnapshot) GetBeatInterval() audio.FrameDiff {
	return s.interval
}

func (s *TrackSnapshot) GetBarInterval() audio.FrameDiff {
	bar := s.GetBar()
	return s.GetPositionOfBar(bar + 1).Diff(s.GetPositionOfBar(bar))
}

func (s *TrackSnapshot) GetPhraseInterval() audio.FrameDiff {
	phrase := s.GetPhrase()
	return s.GetPositionOfPhrase(phrase + 1).Diff(s.GetPositionOfPhrase(phrase))
}

func (s *TrackSnapshot) GetBeat() int64 {
	return s.beat
}

func (s *TrackSnapshot) GetBar() int64 {
	return floorDiv(s.beat-1, int64(s.beatsPerBar)) + 1
}

func (s *TrackSnapshot) GetPhrase() int64 {
	return floorDiv(s.GetBar()-1, int64(s.barsPerPhrase)) + 1
}

func (s *TrackSnapshot) GetBeatPhase() float64 {
	return s.beatPhase
}

func (s *TrackSnapshot) GetBarPhase() float64 {
	return (float64(s.GetBeatWithinBar()-1) + s.beatPhase) / float64(s.beatsPerBar)
}

func (s *TrackSnapshot) GetPhrasePhase() float64 {
	return (float64(s.GetBeatWithinPhrase()-1) + s.beatPhase) / float64(s.beatsPerBar*s.barsPerPhrase)
}

func (s *TrackSnapshot) GetPositionOfBeat(beat int64) audio.FramePos {
	return s.beats.Begin().Add(int(beat - 1)).Position()
}

func (s *TrackSnapshot) GetBeatWithinBar() int {
	return int(floorMod(s.beat-1, int64(s.beatsPerBar))) + 1
}

func (s *TrackSnapshot) IsDownBeat() bool {
	return s.GetBeatWithinBar() == 1
}

func (s *TrackSnapshot) GetBeatWithinPhrase() int {
	return int(floorMod(s.beat-1, int64(s.beatsPerBar*s.barsPerPhrase))) + 1
}

func (s *TrackSnapshot) IsPhraseStart() bool {
	return s.GetBeatWithinPhrase() == 1
}

func (s *TrackSnapshot) GetPositionOfBar(bar int64) audio.FramePos {
	return s.GetPositionOfBeat((bar-1)*int64(s.beatsPerBar) + 1)
}

func (s *TrackSnapshot) GetBarWithinPhrase() int {
	return int(floorMod(s.GetBar()-1, int64(s.barsPerPhrase))) + 1
}

func (s *TrackSnapshot) GetPositionOfPhrase(phrase int64) audio.FramePos {
	return s.GetPositionOfBar((phrase-1)*int64(s.barsPerPhrase) + 1)
}

func (s *TrackSnapshot) GetMarker() string {
	return fmt.Sprintf("%d.%d.%d", s.GetPhrase(), s.GetBarWithinPhrase(), s.GetBeatWithinBar())
}

func (s *TrackSnapshot) DistanceFromBeat() audio.FrameDiff {
	return s.distanceFrom(s.GetPositionOfBeat(s.beat), s.GetPositionOfBeat(s.beat+1))
}

func (s *TrackSnapshot) DistanceFromBar() audio.FrameDiff {
	bar := s.GetBar()
	return s.distanceFrom(s.GetPositionOfBar(bar), s.GetPositionOfBar(bar+1))
}

func (s *TrackSnapshot) DistanceFromPhrase() audio.FrameDiff {
	phrase := s.GetPhrase()
	return s.distanceFrom(s.GetPositionOfPhrase(phrase), s.GetPositionOfPhrase(phrase+1))
}

// distanceFrom returns the signed distance to whichever boundary is closer.
func (s *TrackSnapshot) distanceFrom(start, end audio.FramePos) audio.FrameDiff {
	sinceStart := s.position.Diff(start)
	untilEnd := s.position.Diff(end)
	if sinceStart <= untilEnd.Abs() {
		return sinceStart
	}
	return untilEnd
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
