package rhythm

import (
	"testing"
	"time"

	"github.com/robmorgan/tempomap/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestTransportPlayback(t *testing.T) {
	t.Parallel()

	clk := clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tr := NewTransport(clk, constTempoBeats, 4, 8)

	// stopped transports don't move
	clk.Step(time.Second)
	assert.Equal(t, audio.FramePos(0), tr.Position())
	assert.Equal(t, 0.0, tr.GetRate())

	tr.Play()
	clk.Step(time.Second)
	assert.Equal(t, audio.FramePos(48000), tr.Position())

	// changing the rate must not move the play head
	tr.SetRate(2)
	assert.Equal(t, audio.FramePos(48000), tr.Position())
	clk.Step(500 * time.Millisecond)
	assert.Equal(t, audio.FramePos(96000), tr.Position())

	tr.Stop()
	clk.Step(time.Minute)
	assert.Equal(t, audio.FramePos(96000), tr.Position())
}

func TestTransportSnapshots(t *testing.T) {
	t.Parallel()

	clk := clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tr := NewTransport(clk, constTempoBeats, 4, 8)
	tr.Seek(400)

	s, err := tr.GetSnapshot(0)
	require.NoError(t, err)
	assert.Equal(t, "1.1.1", s.GetMarker())

	// a stopped transport looks the same in the future
	s, err = tr.GetSnapshot(500 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.GetBeat())

	tr.Play()
	s, err = tr.GetSnapshot(500 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.GetBeat())
	assert.Equal(t, audio.FramePos(400), tr.Position())
}

func TestTransportSeekToBeat(t *testing.T) {
	t.Parallel()

	clk := clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tr := NewTransport(clk, nonConstTempoBeats, 4, 8)
	tr.Seek(400)

	// on a beat, the next beat is the current one
	require.True(t, tr.SeekToBeat(1))
	assert.Equal(t, audio.FramePos(400), tr.Position())

	require.True(t, tr.SeekToBeat(9))
	assert.Equal(t, audio.FramePos(192400), tr.Position())

	require.True(t, tr.SeekToBeat(-2))
	assert.Equal(t, audio.FramePos(192400-24000), tr.Position())

	assert.False(t, tr.SeekToBeat(0))
	assert.Equal(t, audio.FramePos(192400-24000), tr.Position())
}

func TestTransportSetBeats(t *testing.T) {
	t.Parallel()

	clk := clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tr := NewTransport(clk, constTempoBeats, 4, 8)
	tr.Seek(192400)

	s, err := tr.GetSnapshot(0)
	require.NoError(t, err)
	assert.Equal(t, audio.Bpm(120), s.GetTempo())

	tr.SetBeats(nonConstTempoBeats)
	assert.Equal(t, nonConstTempoBeats, tr.GetBeats())
	assert.Equal(t, audio.FramePos(192400), tr.Position())

	s, err = tr.GetSnapshot(0)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, s.GetTempo().Value(), 1e-9)
}
