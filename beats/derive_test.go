package beats

import (
	"errors"
	"testing"

	"github.com/robmorgan/tempomap/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	for _, b := range []*Beats{constTempoBeats, nonConstTempoBeats} {
		translated, err := b.Translate(-400)
		require.NoError(t, err)

		for i := -5; i < 30; i++ {
			assert.InDelta(t, b.Begin().Add(i).Position().Value()-400, translated.Begin().Add(i).Position().Value(), maxBeatError)
		}
		assert.Equal(t, b.End().Diff(b.Begin()), translated.End().Diff(translated.Begin()))
	}
}

func TestScaleConstTempo(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		scale    BpmScale
		expected audio.Bpm
	}{
		{Double, 240},
		{Halve, 60},
		{TwoThirds, 80},
		{ThreeFourths, 90},
		{FourThirds, 160},
		{ThreeHalves, 180},
	}

	for _, testCase := range testCases {
		scaled, err := constTempoBeats.Scale(testCase.scale)
		require.NoError(t, err)
		assert.InDelta(t, testCase.expected.Value(), scaled.Bpm().Value(), maxBeatError, testCase.scale.String())
		assert.Equal(t, testStartPosition, scaled.FirstBeatPosition())
	}
}

func TestScaleNonConstTempo(t *testing.T) {
	t.Parallel()

	doubled, err := nonConstTempoBeats.Scale(Double)
	require.NoError(t, err)
	assert.Equal(t, 49, doubled.End().Diff(doubled.Begin()))
	assert.InDelta(t, 240.0, doubled.GetBpmInRange(testStartPosition, tempoChangePosition).Value(), maxBeatError)
	assert.InDelta(t, 120.0, doubled.GetBpmInRange(tempoChangePosition, endPosition).Value(), maxBeatError)
	assert.Equal(t, audio.Bpm(240), doubled.LastMarkerBpm())

	halved, err := nonConstTempoBeats.Scale(Halve)
	require.NoError(t, err)
	assert.Equal(t, 13, halved.End().Diff(halved.Begin()))

	// 8 beats cannot be split into thirds
	_, err = nonConstTempoBeats.Scale(TwoThirds)
	var scaleErr ScaleError
	require.True(t, errors.As(err, &scaleErr))
	assert.Equal(t, 0, scaleErr.Marker)
}

func TestWithSubVersion(t *testing.T) {
	t.Parallel()

	labelled := nonConstTempoBeats.WithSubVersion("manual")
	assert.Equal(t, "manual", labelled.SubVersion())
	assert.Equal(t, "", nonConstTempoBeats.SubVersion())
	assert.Equal(t, nonConstTempoBeats.ToByteArray(), labelled.ToByteArray())
}
