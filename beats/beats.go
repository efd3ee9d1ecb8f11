// Package beats models the beat grid of a track: where every beat falls, expressed in sample frames.
//
// A Beats value is either a constant tempo grid (a first beat plus a BPM) or a list of tempo markers followed by a
// trailing tempo. In both cases the sequence of beats is infinite in both directions: before the first marker the
// tempo of the first segment is extrapolated backwards and after the last marker the trailing tempo continues forever.
//
// Beats values are immutable once constructed and safe for concurrent use.
package beats

import (
	"math"
	"sort"

	"github.com/robmorgan/tempomap/audio"
	"github.com/robmorgan/tempomap/logger"
	"github.com/sirupsen/logrus"
)

// maxBeatIndex bounds every beat index a map can address. Beyond it float64 frame positions can no longer tell
// neighbouring beats apart.
const maxBeatIndex = 1 << 53

// BeatMarker ties a frame position to the start of a run of evenly spaced beats. The run ends at the next marker (or
// at the map's last marker position for the final marker).
type BeatMarker struct {
	Position audio.FramePos

	// BeatsTillNextMarker is the number of beats between this marker and the next one.
	BeatsTillNextMarker int
}

// Beats is a tempo map.
type Beats struct {
	markers []BeatMarker

	// positions and indices hold one entry per marker plus a final entry for the last marker position. indices are
	// cumulative beat indices, so positions[i] is the position of beat indices[i].
	positions []audio.FramePos
	indices   []int

	lastMarkerBpm audio.Bpm
	sampleRate    audio.SampleRate
	subVersion    string
}

// NewConstTempo creates a grid with a beat at startPosition and every beatLength frames before and after it.
func NewConstTempo(startPosition audio.FramePos, bpm audio.Bpm, sampleRate audio.SampleRate, subVersion string) (*Beats, error) {
	return NewFromMarkers(nil, startPosition, bpm, sampleRate, subVersion)
}

// NewFromMarkers creates a tempo map from explicit markers. Between two markers the beats are spread evenly; from
// lastMarkerPosition onwards the beats follow lastMarkerBpm. With no markers this is a constant tempo grid whose
// first beat is lastMarkerPosition.
func NewFromMarkers(
	markers []BeatMarker,
	lastMarkerPosition audio.FramePos,
	lastMarkerBpm audio.Bpm,
	sampleRate audio.SampleRate,
	subVersion string,
) (*Beats, error) {
	if err := validate(markers, lastMarkerPosition, lastMarkerBpm, sampleRate); err != nil {
		logger.GetProjectLogger().WithFields(logrus.Fields{
			"num_markers": len(markers),
			"sample_rate": sampleRate,
			"bpm":         lastMarkerBpm,
		}).Debugf("Rejected tempo map: %v", err)
		return nil, err
	}

	b := &Beats{
		markers:       append([]BeatMarker(nil), markers...),
		positions:     make([]audio.FramePos, 0, len(markers)+1),
		indices:       make([]int, 0, len(markers)+1),
		lastMarkerBpm: lastMarkerBpm,
		sampleRate:    sampleRate,
		subVersion:    subVersion,
	}
	index := 0
	for _, marker := range markers {
		b.positions = append(b.positions, marker.Position)
		b.indices = append(b.indices, index)
		index += marker.BeatsTillNextMarker
	}
	b.positions = append(b.positions, lastMarkerPosition)
	b.indices = append(b.indices, index)
	return b, nil
}

// Must panics if err is not nil. It is meant for maps built from constants.
func Must(b *Beats, err error) *Beats {
	if err != nil {
		panic(err)
	}
	return b
}

func validate(markers []BeatMarker, lastMarkerPosition audio.FramePos, lastMarkerBpm audio.Bpm, sampleRate audio.SampleRate) error {
	if !sampleRate.IsValid() {
		return InvalidArgumentError{Name: "sample rate", Value: sampleRate}
	}
	if !lastMarkerBpm.IsValid() {
		return InvalidArgumentError{Name: "bpm", Value: lastMarkerBpm}
	}
	if !lastMarkerPosition.IsValid() {
		return InvalidArgumentError{Name: "last marker position", Value: lastMarkerPosition}
	}
	total := 0
	for i, marker := range markers {
		if !marker.Position.IsValid() {
			return InvalidMarkersError{Index: i, Reason: "position is invalid"}
		}
		if marker.BeatsTillNextMarker <= 0 {
			return InvalidMarkersError{Index: i, Reason: "marker must span at least one beat"}
		}
		if marker.BeatsTillNextMarker > math.MaxInt32 {
			return InvalidMarkersError{Index: i, Reason: "marker spans more beats than can be stored"}
		}
		total += marker.BeatsTillNextMarker
		if total > maxBeatIndex {
			return InvalidMarkersError{Index: i, Reason: "map spans too many beats"}
		}
		next := lastMarkerPosition
		if i+1 < len(markers) {
			next = markers[i+1].Position
		}
		if next <= marker.Position {
			return InvalidMarkersError{Index: i, Reason: "positions must be strictly increasing"}
		}
	}
	return nil
}

// SampleRate returns the sample rate the frame positions refer to.
func (b *Beats) SampleRate() audio.SampleRate {
	return b.sampleRate
}

// SubVersion returns the free-form label attached to the map. It never affects queries.
func (b *Beats) SubVersion() string {
	return b.subVersion
}

// IsConstTempo is true for maps without markers.
func (b *Beats) IsConstTempo() bool {
	return len(b.markers) == 0
}

// Bpm returns the tempo of a constant tempo map, or an invalid Bpm for marker based maps.
func (b *Beats) Bpm() audio.Bpm {
	if !b.IsConstTempo() {
		return audio.InvalidBpm
	}
	return b.lastMarkerBpm
}

// LastMarkerBpm returns the tempo used after the last marker position.
func (b *Beats) LastMarkerBpm() audio.Bpm {
	return b.lastMarkerBpm
}

// Markers returns a copy of the markers the map was built from.
func (b *Beats) Markers() []BeatMarker {
	return append([]BeatMarker(nil), b.markers...)
}

// FirstBeatPosition returns the position of beat 0.
func (b *Beats) FirstBeatPosition() audio.FramePos {
	return b.positions[0]
}

// LastBeatPosition returns the last marker position, i.e. where the trailing tempo takes over.
func (b *Beats) LastBeatPosition() audio.FramePos {
	return b.positions[b.lastSegment()]
}

func (b *Beats) lastSegment() int {
	return len(b.positions) - 1
}

func (b *Beats) lastBeatLength() audio.FrameDiff {
	return b.lastMarkerBpm.BeatLengthFrames(b.sampleRate)
}

// segmentBeatLength is the beat length between positions[s] and positions[s+1]. The last segment runs forever at the
// trailing tempo.
func (b *Beats) segmentBeatLength(s int) audio.FrameDiff {
	if s >= b.lastSegment() {
		return b.lastBeatLength()
	}
	return b.positions[s+1].Diff(b.positions[s]) / audio.FrameDiff(b.indices[s+1]-b.indices[s])
}

// segmentForIndex returns the last segment whose starting index is <= index. index must be within
// [0, indices[last]).
func (b *Beats) segmentForIndex(index int) int {
	return sort.Search(len(b.indices), func(i int) bool {
		return b.indices[i] > index
	}) - 1
}

// beatPosition returns the position of the beat with the given index, extrapolating before beat 0 and after the last
// marker.
func (b *Beats) beatPosition(index int) audio.FramePos {
	last := b.lastSegment()
	if index >= b.indices[last] {
		return b.positions[last].Add(audio.FrameDiff(index-b.indices[last]) * b.lastBeatLength())
	}
	if index <= 0 {
		return b.positions[0].Add(audio.FrameDiff(index) * b.segmentBeatLength(0))
	}
	s := b.segmentForIndex(index)
	return b.positions[s].Add(audio.FrameDiff(index-b.indices[s]) * b.segmentBeatLength(s))
}

// floorIndex returns the index of the last beat at or before position. ok is false when position is valid but too
// far from the markers to be addressed by a beat index.
func (b *Beats) floorIndex(position audio.FramePos) (index int, ok bool) {
	if !position.IsValid() {
		return 0, false
	}
	last := b.lastSegment()

	var s int
	switch {
	case position >= b.positions[last]:
		s = last
	case position < b.positions[0]:
		s = 0
	default:
		s = sort.Search(len(b.positions), func(i int) bool {
			return b.positions[i] > position
		}) - 1
	}

	elapsed := math.Floor(float64(position.Diff(b.positions[s]) / b.segmentBeatLength(s)))
	if math.Abs(elapsed) >= maxBeatIndex || math.IsNaN(elapsed) {
		return 0, false
	}
	index = b.indices[s] + int(elapsed)

	// The division above can be off by one either way through rounding. Settle on the index the beat positions agree
	// with so that floorIndex(beatPosition(i)) == i.
	for step := 0; step < 2 && b.beatPosition(index) > position; step++ {
		index--
	}
	for step := 0; step < 2 && b.beatPosition(index+1) <= position; step++ {
		index++
	}
	return index, true
}

// fractionalIndex returns the beat index of position including the fraction of the beat already elapsed.
func (b *Beats) fractionalIndex(position audio.FramePos) (float64, bool) {
	index, ok := b.floorIndex(position)
	if !ok {
		return 0, false
	}
	prev := b.beatPosition(index)
	next := b.beatPosition(index + 1)
	return float64(index) + float64(position.Diff(prev)/next.Diff(prev)), true
}
