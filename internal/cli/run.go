package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/forPelevin/redub/internal/jobfile"
	"github.com/forPelevin/redub/internal/logging"
	"github.com/forPelevin/redub/internal/pipeline"
	"github.com/forPelevin/redub/internal/ports/adapters/minio"
	"github.com/forPelevin/redub/internal/usecase"
)

func run(cmd *cobra.Command, mode string) error {
	cfg, err := buildConfig(cmd, mode)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Config{
		Level:    os.Getenv("REDUB_LOG_LEVEL"),
		FilePath: os.Getenv("REDUB_LOG_FILE"),
		Console:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	cfg.Logger = log

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(cmd.Context(), cfg)
}

// buildConfig layers flag defaults, then the job file, then flags the user
// set explicitly.
func buildConfig(cmd *cobra.Command, mode string) (pipeline.Config, error) {
	fs := cmd.Flags()
	cfg := pipeline.Config{
		Mode:        mode,
		VideoPath:   stringFlag(fs, "video"),
		AudioPath:   stringFlag(fs, "audio"),
		OutputPath:  stringFlag(fs, "out"),
		VideoCodec:  stringFlag(fs, "vcodec"),
		AudioCodec:  stringFlag(fs, "acodec"),
		FPS:         floatFlag(fs, "fps"),
		TailSeconds: floatFlag(fs, "tail"),
		Fit:         boolFlag(fs, "fit"),

		CacheDir:    os.Getenv("REDUB_CACHE_DIR"),
		FFmpegPath:  getenvDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getenvDefault("FFPROBE_PATH", "ffprobe"),
		MinIO: minio.Config{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    os.Getenv("MINIO_BUCKET"),
			UseSSL:    getenvBool("MINIO_USE_SSL"),
			Prefix:    os.Getenv("MINIO_PREFIX"),
		},
	}
	if mode == usecase.ModeOverlay {
		cfg.Bullets = stringArrayFlag(fs, "bullet")
	}
	cfg.ManifestPath = stringFlag(fs, "manifest")

	if jobPath := stringFlag(fs, "job"); jobPath != "" {
		job, err := jobfile.Load(jobPath)
		if err != nil {
			return pipeline.Config{}, err
		}
		applyJob(&cfg, job, fs)
	}
	return cfg, nil
}

func applyJob(cfg *pipeline.Config, j jobfile.Job, fs *pflag.FlagSet) {
	setString := func(flag string, dst *string, v string) {
		if v != "" && !fs.Changed(flag) {
			*dst = v
		}
	}
	setFloat := func(flag string, dst *float64, v float64) {
		if v > 0 && !fs.Changed(flag) {
			*dst = v
		}
	}

	setString("video", &cfg.VideoPath, j.Video)
	setString("audio", &cfg.AudioPath, j.Audio)
	setString("out", &cfg.OutputPath, j.Output)
	setString("vcodec", &cfg.VideoCodec, j.VideoCodec)
	setString("acodec", &cfg.AudioCodec, j.AudioCodec)
	setString("manifest", &cfg.ManifestPath, j.Manifest)
	setFloat("fps", &cfg.FPS, j.FPS)
	setFloat("tail", &cfg.TailSeconds, j.TailSeconds)
	if j.Fit != nil && !fs.Changed("fit") {
		cfg.Fit = *j.Fit
	}
	if cfg.Mode == usecase.ModeOverlay && len(j.Bullets) > 0 && !fs.Changed("bullet") {
		cfg.Bullets = append([]string(nil), j.Bullets...)
	}
}

// Flag helpers tolerate flags missing on a subcommand (e.g. --fit on overlay).

func stringFlag(fs *pflag.FlagSet, name string) string {
	v, _ := fs.GetString(name)
	return v
}

func floatFlag(fs *pflag.FlagSet, name string) float64 {
	v, _ := fs.GetFloat64(name)
	return v
}

func boolFlag(fs *pflag.FlagSet, name string) bool {
	v, _ := fs.GetBool(name)
	return v
}

func stringArrayFlag(fs *pflag.FlagSet, name string) []string {
	v, _ := fs.GetStringArray(name)
	return v
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvBool(k string) bool {
	v, err := strconv.ParseBool(os.Getenv(k))
	return err == nil && v
}
