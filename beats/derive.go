package beats

import (
	"github.com/robmorgan/tempomap/audio"
)

// BpmScale is a musically meaningful tempo ratio used to correct octave errors of the beat detection.
type BpmScale int

const (
	Double BpmScale = iota
	Halve
	TwoThirds
	ThreeFourths
	FourThirds
	ThreeHalves
)

func (s BpmScale) ratio() (numerator, denominator int) {
	switch s {
	case Double:
		return 2, 1
	case Halve:
		return 1, 2
	case TwoThirds:
		return 2, 3
	case ThreeFourths:
		return 3, 4
	case FourThirds:
		return 4, 3
	case ThreeHalves:
		return 3, 2
	}
	return 1, 1
}

func (s BpmScale) String() string {
	switch s {
	case Double:
		return "2/1"
	case Halve:
		return "1/2"
	case TwoThirds:
		return "2/3"
	case ThreeFourths:
		return "3/4"
	case FourThirds:
		return "4/3"
	case ThreeHalves:
		return "3/2"
	}
	return "1/1"
}

// Translate returns a copy of the map with every beat moved by offset frames.
func (b *Beats) Translate(offset audio.FrameDiff) (*Beats, error) {
	markers := b.Markers()
	for i := range markers {
		markers[i].Position = markers[i].Position.Add(offset)
	}
	return NewFromMarkers(markers, b.LastBeatPosition().Add(offset), b.lastMarkerBpm, b.sampleRate, b.subVersion)
}

// Scale returns a copy of the map with the tempo multiplied by scale. Marker positions stay where they are; the
// number of beats between them is scaled, which fails with a ScaleError if a marker would end up with a fractional
// number of beats.
func (b *Beats) Scale(scale BpmScale) (*Beats, error) {
	numerator, denominator := scale.ratio()
	markers := b.Markers()
	for i := range markers {
		scaled := markers[i].BeatsTillNextMarker * numerator
		if scaled%denominator != 0 {
			return nil, ScaleError{Scale: scale, Marker: i}
		}
		markers[i].BeatsTillNextMarker = scaled / denominator
	}
	bpm := audio.Bpm(b.lastMarkerBpm.Value() * float64(numerator) / float64(denominator))
	return NewFromMarkers(markers, b.LastBeatPosition(), bpm, b.sampleRate, b.subVersion)
}

// WithSubVersion returns a copy of the map carrying a different label.
func (b *Beats) WithSubVersion(subVersion string) *Beats {
	out := *b
	out.subVersion = subVersion
	return &out
}
