package audio

import (
	"fmt"
	"math"
)

// FrameDiff is a signed distance between two frame positions.
type FrameDiff float64

// FramePos is an offset in sample frames from the start of a track. Fractional values are allowed; NaN marks an
// invalid (undefined) position.
type FramePos float64

// InvalidFramePos is returned by queries that have no answer.
var InvalidFramePos = FramePos(math.NaN())

// IsValid returns false for the invalid sentinel and for infinities.
func (p FramePos) IsValid() bool {
	return !math.IsNaN(float64(p)) && !math.IsInf(float64(p), 0)
}

// Value returns the raw frame offset.
func (p FramePos) Value() float64 {
	return float64(p)
}

// Add moves the position by a frame distance.
func (p FramePos) Add(diff FrameDiff) FramePos {
	return p + FramePos(diff)
}

// Sub moves the position back by a frame distance.
func (p FramePos) Sub(diff FrameDiff) FramePos {
	return p - FramePos(diff)
}

// Diff returns the distance from other to p.
func (p FramePos) Diff(other FramePos) FrameDiff {
	return FrameDiff(p - other)
}

func (p FramePos) String() string {
	if !p.IsValid() {
		return "invalid"
	}
	return fmt.Sprintf("%.3f", float64(p))
}

// Abs returns the magnitude of the distance.
func (d FrameDiff) Abs() FrameDiff {
	return FrameDiff(math.Abs(float64(d)))
}

// SampleRate is the number of frames per second.
type SampleRate float64

// IsValid reports whether the sample rate can be used for tempo conversions.
func (sr SampleRate) IsValid() bool {
	return sr > 0 && !math.IsInf(float64(sr), 0)
}

func (sr SampleRate) Value() float64 {
	return float64(sr)
}

// Bpm is a tempo in beats per minute. NaN marks an invalid tempo.
type Bpm float64

// InvalidBpm is returned when a tempo cannot be determined.
var InvalidBpm = Bpm(math.NaN())

// IsValid reports whether the tempo is a positive, finite value.
func (b Bpm) IsValid() bool {
	return b > 0 && !math.IsInf(float64(b), 0)
}

func (b Bpm) Value() float64 {
	return float64(b)
}

// BeatLengthFrames returns the number of frames a single beat lasts at this tempo.
func (b Bpm) BeatLengthFrames(sampleRate SampleRate) FrameDiff {
	return FrameDiff(60.0 * sampleRate.Value() / b.Value())
}

// BpmFromBeatLength converts a beat length in frames back into a tempo.
func BpmFromBeatLength(beatLength FrameDiff, sampleRate SampleRate) Bpm {
	return Bpm(60.0 * sampleRate.Value() / float64(beatLength))
}
