package rhythm

import (
	"github.com/robmorgan/tempomap/audio"
	"github.com/robmorgan/tempomap/beats"
)

// Snapshot is an interface for probing details about the musical timeline of a track at a single frame position.
type Snapshot interface {
	// GetBeats gets the tempo map the snapshot was computed from.
	GetBeats() *beats.Beats

	// GetTempo gets the tempo of the beat the snapshot falls in.
	GetTempo() audio.Bpm

	// GetBeatsPerBar gets the bar length in beats.
	GetBeatsPerBar() int

	// GetBarsPerPhrase gets the phrase length in bars.
	GetBarsPerPhrase() int

	// GetPosition gets the frame position with respect to which the snapshot is computed.
	GetPosition() audio.FramePos

	// GetBeatInterval gets the length of the current beat in frames.
	GetBeatInterval() audio.FrameDiff

	// GetBarInterval gets the length of the current bar in frames.
	GetBarInterval() audio.FrameDiff

	// GetPhraseInterval gets the length of the current phrase in frames.
	GetPhraseInterval() audio.FrameDiff

	// GetBeat gets the beat number. The first beat of the tempo map is beat 1.
	GetBeat() int64

	// GetBar gets the bar number.
	GetBar() int64

	// GetPhrase gets the phrase number.
	GetPhrase() int64

	// GetBeatPhase gets the beat phase at the position of the snapshot.
	GetBeatPhase() float64

	// GetBarPhase gets the bar phase at the position of the snapshot.
	GetBarPhase() float64

	// GetPhrasePhase gets the phrase phase at the position of the snapshot.
	GetPhrasePhase() float64

	// GetPositionOfBeat determines the frame position at which a particular beat occurs.
	GetPositionOfBeat(beat int64) audio.FramePos

	// GetBeatWithinBar returns the beat number of the snapshot relative to the start of the bar.
	GetBeatWithinBar() int

	// IsDownBeat checks whether the current beat is the first beat in its bar.
	IsDownBeat() bool

	// GetBeatWithinPhrase returns the beat number of the snapshot relative to the start of the phrase.
	GetBeatWithinPhrase() int

	// IsPhraseStart checks whether the current beat is the first beat in its phrase.
	IsPhraseStart() bool

	// GetPositionOfBar determines the frame position at which a particular bar starts.
	GetPositionOfBar(bar int64) audio.FramePos

	// GetBarWithinPhrase returns the bar number of the snapshot relative to the start of the phrase.
	GetBarWithinPhrase() int

	// GetPositionOfPhrase determines the frame position at which a particular phrase starts.
	GetPositionOfPhrase(phrase int64) audio.FramePos

	// GetMarker returns the position represented by the snapshot as "phrase.bar.beat".
	GetMarker() string

	// DistanceFromBeat determines how far the snapshot is from its closest beat. Negative when the beat is ahead.
	DistanceFromBeat() audio.FrameDiff

	// DistanceFromBar determines how far the snapshot is from its closest bar boundary.
	DistanceFromBar() audio.FrameDiff

	// DistanceFromPhrase determines how far the snapshot is from its closest phrase boundary.
	DistanceFromPhrase() audio.FrameDiff
}
