package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"

	"github.com/forPelevin/redub/internal/pipeline"
	"github.com/forPelevin/redub/internal/usecase"
)

func parse(t *testing.T, args ...string) (*cobra.Command, pipeline.Config) {
	t.Helper()
	root := newRootCmd()
	cmd, rest, err := root.Find(args)
	if err != nil {
		t.Fatalf("find command: %v", err)
	}
	if err := cmd.ParseFlags(rest); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := buildConfig(cmd, cmd.Name())
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	return cmd, cfg
}

func TestBuildConfig_DefaultsMatchScripts(t *testing.T) {
	_, cfg := parse(t, "overlay")
	if cfg.Mode != usecase.ModeOverlay {
		t.Fatalf("unexpected mode %q", cfg.Mode)
	}
	if cfg.VideoPath != "input_video.mp4" || cfg.AudioPath != "new_audio.mp3" || cfg.OutputPath != "output_video.mp4" {
		t.Fatalf("unexpected default paths: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Bullets, defaultBullets) {
		t.Fatalf("unexpected default bullets: %v", cfg.Bullets)
	}
	if cfg.TailSeconds != 10 || cfg.VideoCodec != "libx264" || cfg.AudioCodec != "aac" || cfg.FPS != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestBuildConfig_SwapHasNoBullets(t *testing.T) {
	_, cfg := parse(t, "swap", "--fit", "--out", "x.mp4")
	if cfg.Mode != usecase.ModeSwap || !cfg.Fit || cfg.OutputPath != "x.mp4" {
		t.Fatalf("unexpected swap config: %+v", cfg)
	}
	if len(cfg.Bullets) != 0 {
		t.Fatalf("swap must not carry bullets, got %v", cfg.Bullets)
	}
}

func TestBuildConfig_RepeatedBulletsReplaceDefaults(t *testing.T) {
	_, cfg := parse(t, "overlay", "--bullet", "A", "--bullet", "B, with comma")
	want := []string{"A", "B, with comma"}
	if !reflect.DeepEqual(cfg.Bullets, want) {
		t.Fatalf("bullets = %v, want %v", cfg.Bullets, want)
	}
}

func TestBuildConfig_JobFileThenFlags(t *testing.T) {
	job := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(job, []byte(`
video: clip.mp4
audio: music.mp3
output: final.mp4
bullets: [One, Two]
tail_seconds: 6
fps: 24
`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, cfg := parse(t, "overlay", "--job", job, "--fps", "30")
	if cfg.VideoPath != "clip.mp4" || cfg.AudioPath != "music.mp3" || cfg.OutputPath != "final.mp4" {
		t.Fatalf("expected job paths, got %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Bullets, []string{"One", "Two"}) || cfg.TailSeconds != 6 {
		t.Fatalf("expected job bullets and tail, got %v / %v", cfg.Bullets, cfg.TailSeconds)
	}
	if cfg.FPS != 30 {
		t.Fatalf("explicit flag must win over job file, got fps %v", cfg.FPS)
	}
}

func TestBuildConfig_EnvironmentWiring(t *testing.T) {
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_BUCKET", "renders")
	t.Setenv("MINIO_USE_SSL", "true")

	_, cfg := parse(t, "swap")
	if cfg.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" || cfg.FFprobePath != "ffprobe" {
		t.Fatalf("unexpected tool paths %q %q", cfg.FFmpegPath, cfg.FFprobePath)
	}
	if !cfg.MinIO.Enabled() || !cfg.MinIO.UseSSL || cfg.MinIO.Bucket != "renders" {
		t.Fatalf("unexpected minio config %+v", cfg.MinIO)
	}
}

func TestRoot_RejectsPositionalArgs(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"swap", "extra.mp4"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for positional argument")
	}
}

func TestRun_ConfigErrorIsPrefixed(t *testing.T) {
	tmp := t.TempDir()
	root := newRootCmd()
	root.SetArgs([]string{"swap", "--video", filepath.Join(tmp, "missing.mp4")})
	err := root.Execute()
	if err == nil {
		t.Fatalf("expected config error")
	}
	if got := err.Error(); len(got) < 7 || got[:7] != "config:" {
		t.Fatalf("expected config prefix, got %q", got)
	}
}
