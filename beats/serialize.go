package beats

import (
	"math"

	"github.com/robmorgan/tempomap/audio"
	"github.com/robmorgan/tempomap/logger"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// BeatGridVersion tags the encoding of a constant tempo grid.
	BeatGridVersion = "BeatGrid-2.0"

	// BeatMapVersion tags the encoding of a marker based map.
	BeatMapVersion = "BeatMap-2.0"
)

// Field numbers of the protobuf messages:
//
//	message Bpm      { double bpm = 1; }
//	message Beat     { double frame_position = 1; }
//	message Marker   { double frame_position = 1; int32 beats_till_next_marker = 2; }
//	message BeatGrid { Bpm bpm = 1; Beat first_beat = 2; }
//	message BeatMap  { repeated Marker marker = 1; Beat last_marker = 2; Bpm last_marker_bpm = 3; }
const (
	bpmFieldBpm protowire.Number = 1

	beatFieldFramePosition protowire.Number = 1

	markerFieldFramePosition protowire.Number = 1
	markerFieldBeats         protowire.Number = 2

	beatGridFieldBpm       protowire.Number = 1
	beatGridFieldFirstBeat protowire.Number = 2

	beatMapFieldMarker        protowire.Number = 1
	beatMapFieldLastMarker    protowire.Number = 2
	beatMapFieldLastMarkerBpm protowire.Number = 3
)

// Version returns the tag ToByteArray output has to be stored with.
func (b *Beats) Version() string {
	if b.IsConstTempo() {
		return BeatGridVersion
	}
	return BeatMapVersion
}

// ToByteArray encodes the parameters defining the map. The output is deterministic: equal maps produce equal bytes.
// The sample rate and sub version are not part of the encoding and have to be stored alongside it.
func (b *Beats) ToByteArray() []byte {
	if b.IsConstTempo() {
		var out []byte
		out = appendMessage(out, beatGridFieldBpm, appendDouble(nil, bpmFieldBpm, b.lastMarkerBpm.Value()))
		out = appendMessage(out, beatGridFieldFirstBeat, appendDouble(nil, beatFieldFramePosition, b.FirstBeatPosition().Value()))
		return out
	}

	var out []byte
	for _, marker := range b.markers {
		var msg []byte
		msg = appendDouble(msg, markerFieldFramePosition, marker.Position.Value())
		msg = protowire.AppendTag(msg, markerFieldBeats, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(int64(int32(marker.BeatsTillNextMarker))))
		out = appendMessage(out, beatMapFieldMarker, msg)
	}
	out = appendMessage(out, beatMapFieldLastMarker, appendDouble(nil, beatFieldFramePosition, b.LastBeatPosition().Value()))
	out = appendMessage(out, beatMapFieldLastMarkerBpm, appendDouble(nil, bpmFieldBpm, b.lastMarkerBpm.Value()))
	return out
}

// FromByteArray decodes data produced by ToByteArray. The decoder is chosen by version alone. It returns an
// UnknownVersionError or MalformedDataError and never a partially decoded map.
func FromByteArray(sampleRate audio.SampleRate, version string, subVersion string, data []byte) (*Beats, error) {
	var (
		b   *Beats
		err error
	)
	switch version {
	case BeatGridVersion:
		b, err = decodeBeatGrid(sampleRate, subVersion, data)
	case BeatMapVersion:
		b, err = decodeBeatMap(sampleRate, subVersion, data)
	default:
		err = UnknownVersionError{Version: version}
	}
	if err != nil {
		logger.GetProjectLogger().WithFields(logrus.Fields{
			"version":     version,
			"sub_version": subVersion,
			"num_bytes":   len(data),
		}).Warnf("Could not deserialize beats: %v", err)
		return nil, err
	}
	return b, nil
}

func decodeBeatGrid(sampleRate audio.SampleRate, subVersion string, data []byte) (*Beats, error) {
	var (
		bpm, firstBeat       float64
		hasBpm, hasFirstBeat bool
	)
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, value []byte) error {
		var err error
		switch num {
		case beatGridFieldBpm:
			bpm, err = decodeDoubleMessage(typ, value, bpmFieldBpm)
			hasBpm = true
		case beatGridFieldFirstBeat:
			firstBeat, err = decodeDoubleMessage(typ, value, beatFieldFramePosition)
			hasFirstBeat = true
		}
		return err
	})
	if err != nil {
		return nil, MalformedDataError{Version: BeatGridVersion, Reason: err.Error()}
	}
	if !hasBpm || !hasFirstBeat {
		return nil, MalformedDataError{Version: BeatGridVersion, Reason: "missing bpm or first beat"}
	}

	b, err := NewConstTempo(audio.FramePos(firstBeat), audio.Bpm(bpm), sampleRate, subVersion)
	if err != nil {
		return nil, MalformedDataError{Version: BeatGridVersion, Reason: err.Error()}
	}
	return b, nil
}

func decodeBeatMap(sampleRate audio.SampleRate, subVersion string, data []byte) (*Beats, error) {
	var (
		markers                   []BeatMarker
		lastMarker, lastMarkerBpm float64
		hasLastMarker, hasLastBpm bool
	)
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, value []byte) error {
		var err error
		switch num {
		case beatMapFieldMarker:
			var marker BeatMarker
			marker, err = decodeMarker(typ, value)
			markers = append(markers, marker)
		case beatMapFieldLastMarker:
			lastMarker, err = decodeDoubleMessage(typ, value, beatFieldFramePosition)
			hasLastMarker = true
		case beatMapFieldLastMarkerBpm:
			lastMarkerBpm, err = decodeDoubleMessage(typ, value, bpmFieldBpm)
			hasLastBpm = true
		}
		return err
	})
	if err != nil {
		return nil, MalformedDataError{Version: BeatMapVersion, Reason: err.Error()}
	}
	if !hasLastMarker || !hasLastBpm {
		return nil, MalformedDataError{Version: BeatMapVersion, Reason: "missing last marker or its bpm"}
	}
	if len(markers) == 0 {
		return nil, MalformedDataError{Version: BeatMapVersion, Reason: "no markers"}
	}

	b, err := NewFromMarkers(markers, audio.FramePos(lastMarker), audio.Bpm(lastMarkerBpm), sampleRate, subVersion)
	if err != nil {
		return nil, MalformedDataError{Version: BeatMapVersion, Reason: err.Error()}
	}
	return b, nil
}

func decodeMarker(typ protowire.Type, value []byte) (BeatMarker, error) {
	msg, err := messageBytes(typ, value)
	if err != nil {
		return BeatMarker{}, err
	}

	var (
		marker                BeatMarker
		hasPosition, hasBeats bool
	)
	err = consumeFields(msg, func(num protowire.Number, typ protowire.Type, value []byte) error {
		switch num {
		case markerFieldFramePosition:
			position, err := decodeDouble(typ, value)
			if err != nil {
				return err
			}
			marker.Position = audio.FramePos(position)
			hasPosition = true
		case markerFieldBeats:
			if typ != protowire.VarintType {
				return errWireType
			}
			v, n := protowire.ConsumeVarint(value)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if int64(v) != int64(int32(v)) {
				return errOutOfRange
			}
			marker.BeatsTillNextMarker = int(int32(v))
			hasBeats = true
		}
		return nil
	})
	if err != nil {
		return BeatMarker{}, err
	}
	if !hasPosition || !hasBeats {
		return BeatMarker{}, errMissingField
	}
	return marker, nil
}

type wireError string

func (err wireError) Error() string {
	return string(err)
}

const (
	errWireType     = wireError("unexpected wire type")
	errMissingField = wireError("missing required field")
	errOutOfRange   = wireError("value out of range")
)

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// consumeFields walks the top level fields of a message, handing each raw field value to fn. Unknown fields are
// passed through as well; fn ignores the ones it does not know.
func consumeFields(data []byte, fn func(num protowire.Number, typ protowire.Type, value []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		m := protowire.ConsumeFieldValue(num, typ, data)
		if m < 0 {
			return protowire.ParseError(m)
		}
		if err := fn(num, typ, data[:m]); err != nil {
			return err
		}
		data = data[m:]
	}
	return nil
}

func messageBytes(typ protowire.Type, value []byte) ([]byte, error) {
	if typ != protowire.BytesType {
		return nil, errWireType
	}
	msg, n := protowire.ConsumeBytes(value)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return msg, nil
}

func decodeDouble(typ protowire.Type, value []byte) (float64, error) {
	if typ != protowire.Fixed64Type {
		return 0, errWireType
	}
	v, n := protowire.ConsumeFixed64(value)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), nil
}

// decodeDoubleMessage decodes a message holding a single required double field.
func decodeDoubleMessage(typ protowire.Type, value []byte, field protowire.Number) (float64, error) {
	msg, err := messageBytes(typ, value)
	if err != nil {
		return 0, err
	}

	var (
		out   float64
		found bool
	)
	err = consumeFields(msg, func(num protowire.Number, typ protowire.Type, value []byte) error {
		if num != field {
			return nil
		}
		v, err := decodeDouble(typ, value)
		out, found = v, true
		return err
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, errMissingField
	}
	return out, nil
}
