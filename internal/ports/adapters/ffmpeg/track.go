package ffmpeg

import (
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/forPelevin/redub/internal/domain/reconcile"
	"github.com/forPelevin/redub/internal/types"
)

// Tolerance for comparing requested trim points against a track's length.
const durationEpsilon = 1e-6

// AudioTrack is a lazily evaluated audio clip: the source file, how many
// times it is played back to back, and an optional trim window over that.
// Nothing is decoded until the track is part of a Render call.
type AudioTrack struct {
	path   string
	srcDur float64
	loops  int

	trimmed    bool
	start, end float64
}

func newAudioTrack(path string, dur float64) *AudioTrack {
	return &AudioTrack{path: path, srcDur: dur, loops: 1}
}

func (t *AudioTrack) Path() string { return t.path }

func (t *AudioTrack) Duration() float64 {
	if t.trimmed {
		return t.end - t.start
	}
	return t.srcDur * float64(t.loops)
}

func (t *AudioTrack) Loop(n int) (reconcile.Clip, error) {
	if n < 1 {
		return nil, types.Invalid("loop count", "must be >= 1, got %d", n)
	}
	if t.trimmed {
		// -stream_loop repeats the input before any filter runs, so a trim
		// window cannot be repeated.
		return nil, &types.BackendError{Op: "ffmpeg loop", Err: errLoopAfterTrim}
	}
	out := *t
	out.loops = t.loops * n
	return &out, nil
}

func (t *AudioTrack) Subclip(start, end float64) (reconcile.Clip, error) {
	if start < 0 || end <= start {
		return nil, types.Invalid("subclip", "bad range [%.3f, %.3f)", start, end)
	}
	if end > t.Duration()+durationEpsilon {
		return nil, types.Invalid("subclip", "end %.3f beyond clip duration %.3f", end, t.Duration())
	}
	out := *t
	out.trimmed = true
	out.start = t.start + start
	out.end = t.start + end
	return &out, nil
}

// Close releases nothing today; tracks hold no decoder state.
func (t *AudioTrack) Close() error { return nil }

func (t *AudioTrack) stream() *ffmpeg.Stream {
	kw := ffmpeg.KwArgs{}
	if t.loops > 1 {
		kw["stream_loop"] = strconv.Itoa(t.loops - 1)
	}
	s := ffmpeg.Input(t.path, kw).Audio()
	if t.trimmed {
		s = s.Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{
			"start": fmtSeconds(t.start),
			"end":   fmtSeconds(t.end),
		}).Filter("asetpts", ffmpeg.Args{"PTS-STARTPTS"})
	}
	return s
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 6, 64)
}
