package effect

import (
	"github.com/fogleman/ease"
	"github.com/robmorgan/tempomap/engine/scale"
	"github.com/robmorgan/tempomap/rhythm"
)

// Effect is an envelope that repeats every CycleBeats beats of a track. Its value only depends on where a snapshot
// falls within the cycle, so it stays locked to the beat grid through tempo changes.
type Effect struct {
	// Easing shapes the envelope over one cycle.
	Easing ease.Function

	// CycleBeats is the length of one cycle in beats.
	CycleBeats int

	// Offset shifts the cycle by a number of beats.
	Offset int

	Min float64
	Max float64
}

// NewEffect creates an effect of cycleBeats beats with values in [0, 1].
func NewEffect(easing ease.Function, cycleBeats int) *Effect {
	return &Effect{
		Easing:     easing,
		CycleBeats: cycleBeats,
		Min:        0,
		Max:        1,
	}
}

// Phase returns how far into the current cycle the snapshot is, in [0, 1).
func (e *Effect) Phase(s rhythm.Snapshot) float64 {
	cycle := e.CycleBeats
	if cycle <= 0 {
		cycle = 1
	}
	beatInCycle := (s.GetBeat() - 1 - int64(e.Offset)) % int64(cycle)
	if beatInCycle < 0 {
		beatInCycle += int64(cycle)
	}
	return (float64(beatInCycle) + s.GetBeatPhase()) / float64(cycle)
}

// Value evaluates the envelope for the snapshot.
func (e *Effect) Value(s rhythm.Snapshot) float64 {
	easing := e.Easing
	if easing == nil {
		easing = ease.Linear
	}
	eased := scale.Clamp(easing(e.Phase(s)), 0, 1)
	return scale.FromUnit(e.Min, e.Max)(eased)
}

var easings = map[string]ease.Function{
	"linear":      ease.Linear,
	"in-quad":     ease.InQuad,
	"out-quad":    ease.OutQuad,
	"in-out-quad": ease.InOutQuad,
	"in-sine":     ease.InSine,
	"out-sine":    ease.OutSine,
	"in-out-sine": ease.InOutSine,
	"in-square":   ease.InSquare,
	"out-bounce":  ease.OutBounce,
}

// EasingByName looks up an easing function by its command line name, e.g. "in-out-sine".
func EasingByName(name string) (ease.Function, bool) {
	easing, ok := easings[name]
	return easing, ok
}
