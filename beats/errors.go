package beats

import "fmt"

// InvalidArgumentError is returned when a constructor receives a sample rate, tempo or position it cannot work with.
type InvalidArgumentError struct {
	Name  string
	Value interface{}
}

func (err InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %v", err.Name, err.Value)
}

// InvalidMarkersError is returned when a marker list is not strictly increasing or a marker has no beats.
type InvalidMarkersError struct {
	Index  int
	Reason string
}

func (err InvalidMarkersError) Error() string {
	return fmt.Sprintf("invalid beat marker at index %d: %s", err.Index, err.Reason)
}

// UnknownVersionError is returned by FromByteArray for a version tag it has no decoder for.
type UnknownVersionError struct {
	Version string
}

func (err UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown beats version %q", err.Version)
}

// MalformedDataError is returned by FromByteArray when the buffer cannot be decoded into a valid map.
type MalformedDataError struct {
	Version string
	Reason  string
}

func (err MalformedDataError) Error() string {
	return fmt.Sprintf("malformed %s data: %s", err.Version, err.Reason)
}

// ScaleError is returned when a marker based map cannot be rescaled without splitting a beat.
type ScaleError struct {
	Scale  BpmScale
	Marker int
}

func (err ScaleError) Error() string {
	return fmt.Sprintf("cannot scale marker %d by %s: beat count is not divisible", err.Marker, err.Scale)
}
