package beats

import (
	"math"
	"testing"
	"time"

	"github.com/robmorgan/tempomap/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstTempoGetBpm(t *testing.T) {
	t.Parallel()

	assert.Equal(t, testBpm, constTempoBeats.GetBpmInRange(testStartPosition, audio.FramePos(60*testSampleRate)))

	for _, r := range [][2]audio.FramePos{{0, 1}, {-1e6, 5e5}, {12345.6, 23456.7}, {1e9, 2e9}} {
		assert.Equal(t, testBpm, constTempoBeats.GetBpmInRange(r[0], r[1]))
	}
}

func TestNonConstTempoGetBpm(t *testing.T) {
	t.Parallel()

	b := nonConstTempoBeats
	assert.InDelta(t, 120.0, b.GetBpmInRange(testStartPosition, tempoChangePosition).Value(), maxBeatError)
	assert.InDelta(t, 60.0, b.GetBpmInRange(tempoChangePosition, endPosition).Value(), maxBeatError)
	assert.InDelta(t, 120.0, b.GetBpmInRange(endPosition, endPosition+10*48000).Value(), maxBeatError)

	// 8 beats in 4s and 16 beats in 16s
	assert.InDelta(t, 24.0/20.0*60.0, b.GetBpmInRange(testStartPosition, endPosition).Value(), maxBeatError)
}

func TestGetBpmInRangeInvalid(t *testing.T) {
	t.Parallel()

	for _, b := range []*Beats{constTempoBeats, nonConstTempoBeats} {
		assert.False(t, b.GetBpmInRange(1000, 1000).IsValid())
		assert.False(t, b.GetBpmInRange(2000, 1000).IsValid())
		assert.False(t, b.GetBpmInRange(audio.InvalidFramePos, 1000).IsValid())
	}
}

func TestNumBeatsInRange(t *testing.T) {
	t.Parallel()

	b := nonConstTempoBeats
	assert.InDelta(t, 24.0, b.NumBeatsInRange(testStartPosition, endPosition), maxBeatError)
	assert.InDelta(t, -24.0, b.NumBeatsInRange(endPosition, testStartPosition), maxBeatError)
	assert.InDelta(t, 0.5, b.NumBeatsInRange(testStartPosition, testStartPosition+12000), maxBeatError)
	assert.InDelta(t, 1.0, b.NumBeatsInRange(tempoChangePosition-12000, tempoChangePosition+24000), maxBeatError)
}

func TestFindNthBeatZeroIsInvalid(t *testing.T) {
	t.Parallel()

	for _, b := range []*Beats{constTempoBeats, nonConstTempoBeats} {
		for i := -20; i < 40; i++ {
			position := b.Begin().Add(i).Position()
			assert.False(t, b.FindNthBeat(position, 0).IsValid())
			assert.False(t, b.FindNthBeat(position.Add(100), 0).IsValid())
		}
	}
}

func TestFindNthBeatInvalidPosition(t *testing.T) {
	t.Parallel()

	assert.False(t, constTempoBeats.FindNthBeat(audio.InvalidFramePos, 1).IsValid())
	assert.False(t, constTempoBeats.FindNextBeat(audio.InvalidFramePos).IsValid())
	assert.False(t, nonConstTempoBeats.FindPrevBeat(audio.InvalidFramePos).IsValid())
}

func TestConstTempoFindNthBeatWhenOnBeat(t *testing.T) {
	t.Parallel()

	position := constTempoBeats.Begin().Add(10).Position()

	// findNthBeat should return exactly the current beat if we ask for 1 or -1. For all other values, it should
	// return n times the beat length.
	for i := 1; i < 20; i++ {
		assert.InDelta(t, position.Add(testBeatLength*audio.FrameDiff(i-1)).Value(),
			constTempoBeats.FindNthBeat(position, i).Value(), maxBeatError)
		assert.InDelta(t, position.Add(testBeatLength*audio.FrameDiff(-i+1)).Value(),
			constTempoBeats.FindNthBeat(position, -i).Value(), maxBeatError)
	}
}

func TestConstTempoFindNthBeatWhenNotOnBeat(t *testing.T) {
	t.Parallel()

	it := constTempoBeats.Begin().Add(10)
	previousBeat := it.Position()
	nextBeat := it.Next().Position()
	position := previousBeat.Add(nextBeat.Diff(previousBeat) / 2)

	// multiples of beats starting from the next or previous beat, depending on the sign of n
	for i := 1; i < 20; i++ {
		assert.InDelta(t, nextBeat.Add(testBeatLength*audio.FrameDiff(i-1)).Value(),
			constTempoBeats.FindNthBeat(position, i).Value(), maxBeatError)
		assert.InDelta(t, previousBeat.Add(testBeatLength*audio.FrameDiff(-i+1)).Value(),
			constTempoBeats.FindNthBeat(position, -i).Value(), maxBeatError)
	}
}

func TestFindNthBeatRules(t *testing.T) {
	t.Parallel()

	for _, b := range []*Beats{constTempoBeats, nonConstTempoBeats} {
		for k := -12; k < 36; k++ {
			beat := b.Begin().Add(k)
			between := beat.Position().Add(beat.BeatLengthFrames() / 4)

			for n := 1; n < 12; n++ {
				// exact hit
				assert.Equal(t, beat.Add(n-1).Position(), b.FindNthBeat(beat.Position(), n))
				assert.Equal(t, beat.Add(-n+1).Position(), b.FindNthBeat(beat.Position(), -n))

				// strictly between beat k and k+1
				assert.Equal(t, beat.Add(n).Position(), b.FindNthBeat(between, n))
				assert.Equal(t, beat.Add(1-n).Position(), b.FindNthBeat(between, -n))
			}
		}
	}
}

func TestNonConstTempoFindNthBeatAcrossTempoChange(t *testing.T) {
	t.Parallel()

	b := nonConstTempoBeats

	// halfway between beat 7 and the tempo change at beat 8
	position := tempoChangePosition - 12000
	assert.Equal(t, tempoChangePosition, b.FindNthBeat(position, 1))
	assert.Equal(t, tempoChangePosition+48000, b.FindNthBeat(position, 2))
	assert.Equal(t, tempoChangePosition-24000, b.FindNthBeat(position, -1))

	// the trailing tempo starts at the end position
	assert.Equal(t, endPosition, b.FindNextBeat(endPosition-1))
	assert.Equal(t, endPosition+24000, b.FindNthBeat(endPosition, 2))
	assert.Equal(t, endPosition-48000, b.FindNthBeat(endPosition, -2))
}

func TestConstTempoFindPrevNextBeatWhenOnBeat(t *testing.T) {
	t.Parallel()

	position := constTempoBeats.Begin().Add(10).Position()

	for _, snap := range []bool{true, false} {
		prev, next, ok := constTempoBeats.FindPrevNextBeats(position, snap)
		require.True(t, ok)
		assert.Equal(t, position, prev)
		assert.Equal(t, position, next)
	}

	// Both previous and next beat should return the current position.
	assert.InDelta(t, position.Value(), constTempoBeats.FindNextBeat(position).Value(), maxBeatError)
	assert.InDelta(t, position.Value(), constTempoBeats.FindPrevBeat(position).Value(), maxBeatError)
}

func TestConstTempoFindPrevNextBeatWhenNotOnBeat(t *testing.T) {
	t.Parallel()

	it := constTempoBeats.Begin().Add(10)
	previousBeat := it.Position()
	nextBeat := it.Next().Position()
	position := previousBeat.Add(nextBeat.Diff(previousBeat) / 2)

	for _, snap := range []bool{true, false} {
		prev, next, ok := constTempoBeats.FindPrevNextBeats(position, snap)
		require.True(t, ok)
		assert.InDelta(t, previousBeat.Value(), prev.Value(), maxBeatError)
		assert.InDelta(t, nextBeat.Value(), next.Value(), maxBeatError)
	}
}

func TestFindPrevNextBeatsSnapping(t *testing.T) {
	t.Parallel()

	for _, b := range []*Beats{constTempoBeats, nonConstTempoBeats} {
		beat := b.Begin().Add(8)
		nextBeat := beat.Next()

		justAfter := beat.Position().Add(SnapEpsilonFrames / 2)
		prev, next, ok := b.FindPrevNextBeats(justAfter, true)
		require.True(t, ok)
		assert.Equal(t, beat.Position(), prev)
		assert.Equal(t, beat.Position(), next)

		prev, next, _ = b.FindPrevNextBeats(justAfter, false)
		assert.Equal(t, beat.Position(), prev)
		assert.Equal(t, nextBeat.Position(), next)

		justBefore := nextBeat.Position().Sub(SnapEpsilonFrames / 2)
		prev, next, _ = b.FindPrevNextBeats(justBefore, true)
		assert.Equal(t, nextBeat.Position(), prev)
		assert.Equal(t, nextBeat.Position(), next)

		prev, next, _ = b.FindPrevNextBeats(justBefore, false)
		assert.Equal(t, beat.Position(), prev)
		assert.Equal(t, nextBeat.Position(), next)
	}
}

func TestFindPrevNextBeatsInvalidPosition(t *testing.T) {
	t.Parallel()

	prev, next, ok := nonConstTempoBeats.FindPrevNextBeats(audio.InvalidFramePos, true)
	assert.False(t, ok)
	assert.False(t, prev.IsValid())
	assert.False(t, next.IsValid())
}

func TestFindClosestBeat(t *testing.T) {
	t.Parallel()

	b := nonConstTempoBeats
	assert.Equal(t, tempoChangePosition, b.FindClosestBeat(tempoChangePosition-100))
	assert.Equal(t, tempoChangePosition, b.FindClosestBeat(tempoChangePosition+100))
	assert.Equal(t, tempoChangePosition+48000, b.FindClosestBeat(tempoChangePosition+47000))
	assert.False(t, b.FindClosestBeat(audio.InvalidFramePos).IsValid())
}

func TestBeatLengthFramesAt(t *testing.T) {
	t.Parallel()

	b := nonConstTempoBeats
	assert.InDelta(t, 24000.0, float64(b.BeatLengthFramesAt(testStartPosition-1e6)), maxBeatError)
	assert.InDelta(t, 24000.0, float64(b.BeatLengthFramesAt(testStartPosition+1000)), maxBeatError)
	assert.InDelta(t, 48000.0, float64(b.BeatLengthFramesAt(tempoChangePosition)), maxBeatError)
	assert.InDelta(t, 24000.0, float64(b.BeatLengthFramesAt(endPosition+1e7)), maxBeatError)
}

func TestQueriesFarFromMarkers(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	go func() {
		defer close(done)

		for _, b := range []*Beats{constTempoBeats, nonConstTempoBeats} {
			for _, position := range []audio.FramePos{1e24, -1e24, math.MaxFloat64, -math.MaxFloat64} {
				assert.False(t, b.FindNextBeat(position).IsValid())
				assert.False(t, b.FindPrevBeat(position).IsValid())
				assert.False(t, b.FindClosestBeat(position).IsValid())

				_, _, ok := b.FindPrevNextBeats(position, true)
				assert.False(t, ok)
				_, ok = b.IteratorFrom(position)
				assert.False(t, ok)

				assert.True(t, math.IsNaN(b.NumBeatsInRange(0, position)))
				assert.False(t, b.GetBpmInRange(0, position).IsValid())
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queries far from the markers did not return")
	}
}

func TestQueriesFarButAddressable(t *testing.T) {
	t.Parallel()

	position := audio.FramePos(1e15)
	next := constTempoBeats.FindNextBeat(position)
	require.True(t, next.IsValid())
	assert.True(t, next >= position)
	assert.True(t, next.Diff(position) < testBeatLength)

	prev := constTempoBeats.FindPrevBeat(position)
	assert.Equal(t, testBeatLength, next.Diff(prev))

	assert.False(t, constTempoBeats.FindNthBeat(0, math.MaxInt64).IsValid())
}
