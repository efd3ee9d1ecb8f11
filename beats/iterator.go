package beats

import "github.com/robmorgan/tempomap/audio"

// Iterator addresses a single beat of a map by its signed beat index. It is a small value: copying, advancing or
// comparing iterators never touches the map and never allocates.
//
// Iterators extend infinitely in both directions, so Add and Sub always yield a dereferenceable iterator.
type Iterator struct {
	beats *Beats
	index int
}

// Begin returns an iterator on beat 0: the first marker, or the start position of a constant tempo grid.
func (b *Beats) Begin() Iterator {
	return Iterator{beats: b, index: 0}
}

// End returns an iterator one past the last marker position. For a constant tempo grid this is Begin().Add(1).
func (b *Beats) End() Iterator {
	return Iterator{beats: b, index: b.indices[b.lastSegment()] + 1}
}

// IteratorFrom returns an iterator on the last beat at or before position. ok is false for an invalid position or one
// too far out to be addressed.
func (b *Beats) IteratorFrom(position audio.FramePos) (it Iterator, ok bool) {
	index, ok := b.floorIndex(position)
	if !ok {
		return Iterator{}, false
	}
	return Iterator{beats: b, index: index}, true
}

// Beats returns the map the iterator belongs to.
func (it Iterator) Beats() *Beats {
	return it.beats
}

// Index returns the signed beat index. Beat 0 is the first beat of the map.
func (it Iterator) Index() int {
	return it.index
}

// Position returns the frame position of the beat.
func (it Iterator) Position() audio.FramePos {
	if it.beats == nil {
		return audio.InvalidFramePos
	}
	return it.beats.beatPosition(it.index)
}

// BeatLengthFrames returns the distance from this beat to the next one.
func (it Iterator) BeatLengthFrames() audio.FrameDiff {
	return it.Next().Position().Diff(it.Position())
}

// Add moves the iterator n beats forward. n may be negative.
func (it Iterator) Add(n int) Iterator {
	return Iterator{beats: it.beats, index: it.index + n}
}

// Sub moves the iterator n beats backward. n may be negative.
func (it Iterator) Sub(n int) Iterator {
	return Iterator{beats: it.beats, index: it.index - n}
}

// Next is it.Add(1).
func (it Iterator) Next() Iterator {
	return it.Add(1)
}

// Prev is it.Sub(1).
func (it Iterator) Prev() Iterator {
	return it.Sub(1)
}

// Diff returns the number of beats from other to it, so that other.Add(it.Diff(other)) == it. It panics when the
// iterators belong to different maps.
func (it Iterator) Diff(other Iterator) int {
	it.mustShareBeats(other)
	return it.index - other.index
}

// Equal reports whether both iterators address the same beat of the same map.
func (it Iterator) Equal(other Iterator) bool {
	return it.beats == other.beats && it.index == other.index
}

// Less reports whether it comes before other. It panics when the iterators belong to different maps.
func (it Iterator) Less(other Iterator) bool {
	it.mustShareBeats(other)
	return it.index < other.index
}

func (it Iterator) mustShareBeats(other Iterator) {
	if it.beats != other.beats {
		panic("beats: comparing iterators of different maps")
	}
}
