package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/forPelevin/redub/internal/domain/bullets"
	"github.com/forPelevin/redub/internal/domain/reconcile"
	"github.com/forPelevin/redub/internal/domain/subtitles"
	"github.com/forPelevin/redub/internal/ports"
	"github.com/forPelevin/redub/internal/types"
)

const (
	ModeSwap    = "swap"
	ModeOverlay = "overlay"

	DefaultTailSeconds = 10.0
)

// overlayStyle matches the look of the bullet block: Arial 30 in white with a
// 2px black outline, 50px from the left edge, vertically centered.
var overlayStyle = types.Overlay{
	X:           50,
	FontName:    "Arial",
	FontSize:    30,
	Color:       "white",
	StrokeColor: "black",
	StrokeWidth: 2,
}

type Deps struct {
	Media ports.MediaBackend
	// Publisher is optional; when nil the output stays local.
	Publisher ports.Publisher
	Log       *zap.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return Usecase{d: d}
}

type Input struct {
	VideoPath  string
	AudioPath  string
	OutputPath string

	Bullets     []string
	TailSeconds float64
	// Fit reconciles the audio to the video length in swap mode; overlay
	// mode always does.
	Fit bool

	VideoCodec string
	AudioCodec string
	FPS        float64

	// WorkDir holds intermediate files (the overlay subtitles).
	WorkDir   string
	UploadKey string
}

type Result struct {
	Manifest types.Manifest
}

// Swap replaces the video's audio track. The output keeps the video's length.
func (u Usecase) Swap(ctx context.Context, in Input) (Result, error) {
	return u.run(ctx, ModeSwap, in)
}

// Overlay replaces the audio, fitted to the video, and shows the bullet
// points during the last TailSeconds of the video.
func (u Usecase) Overlay(ctx context.Context, in Input) (Result, error) {
	return u.run(ctx, ModeOverlay, in)
}

func (u Usecase) run(ctx context.Context, mode string, in Input) (Result, error) {
	log := u.d.Log.With(zap.String("mode", mode), zap.String("output", in.OutputPath))
	res, err := u.render(ctx, log, mode, in)
	if err != nil {
		log.Error("render failed", zap.Error(err))
		return Result{}, err
	}
	return res, nil
}

func (u Usecase) render(ctx context.Context, log *zap.Logger, mode string, in Input) (Result, error) {
	log.Info("loading video", zap.String("path", in.VideoPath))
	video, err := u.d.Media.Probe(ctx, in.VideoPath)
	if err != nil {
		return Result{}, fmt.Errorf("load video: %w", err)
	}
	if !video.HasVideo {
		return Result{}, types.Invalid("video", "%s has no video stream", in.VideoPath)
	}
	if video.Duration <= 0 {
		return Result{}, types.Invalid("video", "%s has no usable duration", in.VideoPath)
	}

	log.Info("loading audio", zap.String("path", in.AudioPath))
	clip, err := u.d.Media.OpenAudio(ctx, in.AudioPath)
	if err != nil {
		return Result{}, fmt.Errorf("load audio: %w", err)
	}
	defer func() {
		if err := clip.Close(); err != nil {
			log.Warn("close audio", zap.Error(err))
		}
	}()

	m := types.Manifest{
		Mode:     mode,
		Video:    in.VideoPath,
		Audio:    in.AudioPath,
		Output:   in.OutputPath,
		VideoSec: video.Duration,
		AudioSec: clip.Duration(),
		Action:   "none",
	}
	spec := ports.RenderSpec{
		VideoPath:  in.VideoPath,
		Audio:      clip,
		OutputPath: in.OutputPath,
		VideoCodec: in.VideoCodec,
		AudioCodec: in.AudioCodec,
		FPS:        in.FPS,
	}
	if spec.FPS <= 0 {
		spec.FPS = video.FPS
	}

	if mode == ModeOverlay || in.Fit {
		decision, err := reconcile.Plan(clip.Duration(), video.Duration)
		if err != nil {
			return Result{}, err
		}
		log.Info("adjusting audio",
			zap.Float64("audio_sec", clip.Duration()),
			zap.Float64("video_sec", video.Duration),
			zap.String("action", string(decision.Action)),
			zap.Int("repeats", decision.Repeats),
		)
		fitted, err := reconcile.Reconcile(clip, video.Duration)
		if err != nil {
			return Result{}, fmt.Errorf("adjust audio: %w", err)
		}
		spec.Audio = fitted
		m.Action = string(decision.Action)
		m.Repeats = decision.Repeats
	} else {
		spec.MaxDuration = video.Duration
	}

	if mode == ModeOverlay {
		subsPath, ov, err := u.writeOverlay(log, in, video)
		if err != nil {
			return Result{}, err
		}
		spec.SubtitlesPath = subsPath
		m.Overlay = &types.ManifestOverlay{
			StartSec: ov.Start,
			EndSec:   ov.End,
			Bullets:  append([]string(nil), in.Bullets...),
		}
	}

	log.Info("writing output file", zap.Float64("fps", spec.FPS))
	if err := u.d.Media.Render(ctx, spec); err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}
	log.Info("output saved", zap.String("path", in.OutputPath))

	if u.d.Publisher != nil {
		key := in.UploadKey
		if key == "" {
			key = filepath.Base(in.OutputPath)
		}
		loc, err := u.d.Publisher.Upload(ctx, in.OutputPath, key)
		if err != nil {
			return Result{}, fmt.Errorf("publish: %w", err)
		}
		log.Info("output uploaded", zap.String("location", loc))
		m.Uploaded = loc
	}

	return Result{Manifest: m}, nil
}

func (u Usecase) writeOverlay(log *zap.Logger, in Input, video types.MediaInfo) (string, types.Overlay, error) {
	text := bullets.Format(in.Bullets)
	if text == "" {
		return "", types.Overlay{}, types.Invalid("bullets", "no bullet points to show")
	}
	if in.WorkDir == "" {
		return "", types.Overlay{}, types.Invalid("work dir", "is required for the text overlay")
	}
	tail := in.TailSeconds
	if tail <= 0 {
		tail = DefaultTailSeconds
	}

	ov := overlayStyle
	ov.Text = text
	ov.Start, ov.End = bullets.Window(video.Duration, tail)
	log.Info("creating text overlay",
		zap.Int("bullets", len(in.Bullets)),
		zap.Float64("start_sec", ov.Start),
		zap.Float64("end_sec", ov.End),
	)

	ass, err := subtitles.RenderOverlayASS(ov, video.Width, video.Height)
	if err != nil {
		return "", types.Overlay{}, err
	}
	path := filepath.Join(in.WorkDir, "bullets.ass")
	if err := writeFile(path, []byte(ass)); err != nil {
		return "", types.Overlay{}, fmt.Errorf("write overlay: %w", err)
	}
	return path, ov, nil
}

func writeFile(path string, b []byte) error {
	return os.WriteFile(path, b, 0o644)
}
