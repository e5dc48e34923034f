package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/forPelevin/redub/internal/ports"
	"github.com/forPelevin/redub/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/redub/internal/ports/adapters/minio"
	"github.com/forPelevin/redub/internal/types"
	"github.com/forPelevin/redub/internal/usecase"
)

type Config struct {
	Mode       string
	VideoPath  string
	AudioPath  string
	OutputPath string

	Bullets     []string
	TailSeconds float64
	Fit         bool

	VideoCodec string
	AudioCodec string
	FPS        float64

	// CacheDir is the base directory for per-run scratch files.
	// If empty, defaults to ".cache".
	CacheDir string
	// ManifestPath, when set, receives a JSON summary of the run.
	ManifestPath string

	FFmpegPath  string
	FFprobePath string

	MinIO minio.Config

	Logger *zap.Logger
}

func (c Config) Validate() error {
	switch c.Mode {
	case usecase.ModeSwap, usecase.ModeOverlay:
	default:
		return types.Invalid("mode", "unknown mode %q", c.Mode)
	}
	if err := checkInput("video", c.VideoPath); err != nil {
		return err
	}
	if err := checkInput("audio", c.AudioPath); err != nil {
		return err
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return types.Invalid("output", "path is empty")
	}
	if same(c.OutputPath, c.VideoPath) || same(c.OutputPath, c.AudioPath) {
		return types.Invalid("output", "must differ from the inputs")
	}
	if c.TailSeconds < 0 {
		return types.Invalid("tail", "must be >= 0")
	}
	if c.FPS < 0 {
		return types.Invalid("fps", "must be >= 0")
	}
	if c.Mode == usecase.ModeOverlay && len(c.Bullets) == 0 {
		return types.Invalid("bullets", "overlay needs at least one bullet point")
	}
	return nil
}

func Run(ctx context.Context, cfg Config) error {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// adapters
	deps := usecase.Deps{
		Media: ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, log.Named("ffmpeg")),
		Log:   log,
	}
	// The use case logs its own failures; fail covers the steps around it.
	fail := func(msg string, err error) error {
		log.Error(msg, zap.Error(err))
		return err
	}

	if cfg.MinIO.Enabled() {
		pub, err := minio.New(cfg.MinIO)
		if err != nil {
			return fail("publisher setup failed", err)
		}
		deps.Publisher = pub
	}
	uc := usecase.New(deps)

	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	jobID := hash(fmt.Sprintf("%s|%s|%s|%d", cfg.VideoPath, cfg.AudioPath, cfg.OutputPath, time.Now().UnixNano()))
	workDir := filepath.Join(baseCache, "runs", jobID)
	log.Debug("preparing workspace", zap.String("dir", workDir))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fail("workspace setup failed", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn("remove workspace", zap.String("dir", workDir), zap.Error(err))
		}
	}()

	if dir := filepath.Dir(cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fail("output dir setup failed", err)
		}
	}

	in := usecase.Input{
		VideoPath:   cfg.VideoPath,
		AudioPath:   cfg.AudioPath,
		OutputPath:  cfg.OutputPath,
		Bullets:     cfg.Bullets,
		TailSeconds: cfg.TailSeconds,
		Fit:         cfg.Fit,
		VideoCodec:  cfg.VideoCodec,
		AudioCodec:  cfg.AudioCodec,
		FPS:         cfg.FPS,
		WorkDir:     workDir,
		UploadKey:   filepath.Base(cfg.OutputPath),
	}
	var res usecase.Result
	var err error
	if cfg.Mode == usecase.ModeOverlay {
		res, err = uc.Overlay(ctx, in)
	} else {
		res, err = uc.Swap(ctx, in)
	}
	if err != nil {
		return err
	}

	if cfg.ManifestPath == "" {
		return nil
	}
	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return fail("manifest failed", fmt.Errorf("marshal manifest: %w", err))
	}
	if err := os.WriteFile(cfg.ManifestPath, b, 0o644); err != nil {
		return fail("manifest failed", err)
	}
	log.Info("manifest written", zap.String("path", cfg.ManifestPath))
	return nil
}

func checkInput(field, path string) error {
	if strings.TrimSpace(path) == "" {
		return types.Invalid(field, "path is empty")
	}
	st, err := os.Stat(path)
	if err != nil {
		return types.Invalid(field, "stat %s: %v", path, err)
	}
	if st.IsDir() {
		return types.Invalid(field, "%s is a directory", path)
	}
	return nil
}

func same(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.MediaBackend = (*ffmpeg.Adapter)(nil)
var _ ports.Publisher = (*minio.Adapter)(nil)
var _ ports.AudioClip = (*ffmpeg.AudioTrack)(nil)
