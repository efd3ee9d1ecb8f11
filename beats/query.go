package beats

import (
	"math"

	"github.com/robmorgan/tempomap/audio"
)

// SnapEpsilonFrames is how close a position has to be to a beat for FindPrevNextBeats to snap onto it.
const SnapEpsilonFrames = 0.01

// FindNthBeat returns the position of the nth beat relative to position.
//
// For n > 0 counting starts at the first beat at or after position, for n < 0 at the last beat at or before
// position. A position exactly on a beat is therefore returned for both n == 1 and n == -1. n == 0 is meaningless and
// yields an invalid position.
func (b *Beats) FindNthBeat(position audio.FramePos, n int) audio.FramePos {
	if n == 0 || n > maxBeatIndex || n < -maxBeatIndex {
		return audio.InvalidFramePos
	}
	index, ok := b.floorIndex(position)
	if !ok {
		return audio.InvalidFramePos
	}
	onBeat := b.beatPosition(index) == position

	switch {
	case n > 0 && onBeat:
		return b.beatPosition(index + n - 1)
	case n > 0:
		return b.beatPosition(index + n)
	case onBeat:
		return b.beatPosition(index + n + 1)
	default:
		return b.beatPosition(index + 1 + n)
	}
}

// FindNextBeat returns the first beat at or after position.
func (b *Beats) FindNextBeat(position audio.FramePos) audio.FramePos {
	return b.FindNthBeat(position, 1)
}

// FindPrevBeat returns the last beat at or before position.
func (b *Beats) FindPrevBeat(position audio.FramePos) audio.FramePos {
	return b.FindNthBeat(position, -1)
}

// FindPrevNextBeats returns the beats surrounding position. When position is exactly on a beat both results are that
// beat. With snapToNearBeats a position within SnapEpsilonFrames of a beat is treated as being on it.
func (b *Beats) FindPrevNextBeats(position audio.FramePos, snapToNearBeats bool) (prev, next audio.FramePos, ok bool) {
	index, ok := b.floorIndex(position)
	if !ok {
		return audio.InvalidFramePos, audio.InvalidFramePos, false
	}
	prev = b.beatPosition(index)
	next = b.beatPosition(index + 1)

	if prev == position {
		return prev, prev, true
	}
	if snapToNearBeats {
		if position.Diff(prev) < SnapEpsilonFrames {
			return prev, prev, true
		}
		if next.Diff(position) < SnapEpsilonFrames {
			return next, next, true
		}
	}
	return prev, next, true
}

// FindClosestBeat returns whichever beat is nearest to position, preferring the earlier one on a tie.
func (b *Beats) FindClosestBeat(position audio.FramePos) audio.FramePos {
	prev, next, ok := b.FindPrevNextBeats(position, false)
	if !ok {
		return audio.InvalidFramePos
	}
	if next.Diff(position) < position.Diff(prev) {
		return next
	}
	return prev
}

// BeatLengthFramesAt returns the length of the beat that contains position.
func (b *Beats) BeatLengthFramesAt(position audio.FramePos) audio.FrameDiff {
	it, ok := b.IteratorFrom(position)
	if !ok {
		return audio.FrameDiff(audio.InvalidFramePos)
	}
	return it.BeatLengthFrames()
}

// NumBeatsInRange returns the fractional number of beats between two positions. It is negative when endPosition is
// before startPosition.
func (b *Beats) NumBeatsInRange(startPosition, endPosition audio.FramePos) float64 {
	start, ok := b.fractionalIndex(startPosition)
	if !ok {
		return float64(audio.InvalidFramePos)
	}
	end, ok := b.fractionalIndex(endPosition)
	if !ok {
		return float64(audio.InvalidFramePos)
	}
	return end - start
}

// GetBpmInRange returns the average tempo between two positions. A constant tempo grid always returns its own BPM.
// An empty or inverted range yields an invalid Bpm.
func (b *Beats) GetBpmInRange(startPosition, endPosition audio.FramePos) audio.Bpm {
	if !startPosition.IsValid() || !endPosition.IsValid() || endPosition <= startPosition {
		return audio.InvalidBpm
	}
	if b.IsConstTempo() {
		return b.lastMarkerBpm
	}
	numBeats := b.NumBeatsInRange(startPosition, endPosition)
	if math.IsNaN(numBeats) {
		return audio.InvalidBpm
	}
	minutes := float64(endPosition.Diff(startPosition)) / b.sampleRate.Value() / 60.0
	return audio.Bpm(numBeats / minutes)
}
