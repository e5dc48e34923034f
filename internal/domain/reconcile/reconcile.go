package reconcile

import (
	"fmt"
	"math"

	"github.com/forPelevin/redub/internal/types"
)

// Clip is the minimal view of a media clip needed to fit it to a duration.
// Implementations must return new clips and leave the receiver untouched.
type Clip interface {
	Duration() float64
	Subclip(start, end float64) (Clip, error)
	Loop(n int) (Clip, error)
}

type Action string

const (
	ActionPass Action = "pass"
	ActionTrim Action = "trim"
	ActionLoop Action = "loop"
)

// MaxRepeats bounds how many times a source may be played back to back.
const MaxRepeats = math.MaxInt32

type Decision struct {
	Action  Action
	Repeats int
}

// Plan decides how a source of srcDur seconds is fitted to target seconds.
// A loop always computes one repeat more than needed, so an exact multiple
// still gets trimmed rather than landing on the boundary.
func Plan(srcDur, target float64) (Decision, error) {
	if !positive(target) {
		return Decision{}, types.Invalid("target duration", "must be > 0, got %v", target)
	}
	if !positive(srcDur) {
		return Decision{}, types.Invalid("source duration", "must be > 0, got %v", srcDur)
	}
	switch {
	case srcDur == target:
		return Decision{Action: ActionPass}, nil
	case srcDur > target:
		return Decision{Action: ActionTrim}, nil
	default:
		n := math.Floor(target/srcDur) + 1
		if n > MaxRepeats {
			return Decision{}, types.Invalid("source duration", "%v is too short to loop to %v (needs more than %d repeats)", srcDur, target, MaxRepeats)
		}
		return Decision{Action: ActionLoop, Repeats: int(n)}, nil
	}
}

// Reconcile returns a clip whose duration equals target: src itself when the
// durations match, its [0, target) prefix when longer, and the prefix of src
// looped Plan(...).Repeats times when shorter.
func Reconcile(src Clip, target float64) (Clip, error) {
	if src == nil {
		return nil, types.Invalid("source clip", "is nil")
	}
	d, err := Plan(src.Duration(), target)
	if err != nil {
		return nil, err
	}

	switch d.Action {
	case ActionPass:
		return src, nil
	case ActionTrim:
		out, err := src.Subclip(0, target)
		if err != nil {
			return nil, backend("trim", err)
		}
		return out, nil
	}

	looped, err := src.Loop(d.Repeats)
	if err != nil {
		return nil, backend(fmt.Sprintf("loop x%d", d.Repeats), err)
	}
	out, err := looped.Subclip(0, target)
	if err != nil {
		return nil, backend("trim looped", err)
	}
	return out, nil
}

func backend(op string, err error) error {
	if types.IsBackend(err) || types.IsInvalidInput(err) {
		return fmt.Errorf("reconcile %s: %w", op, err)
	}
	return &types.BackendError{Op: "reconcile " + op, Err: err}
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}
