package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/forPelevin/redub/internal/ports"
	"github.com/forPelevin/redub/internal/types"
)

const (
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

var errLoopAfterTrim = errors.New("cannot loop a trimmed track")

type Adapter struct {
	ffmpeg  string
	ffprobe string
	log     *zap.Logger
}

func New(ffmpegPath, ffprobePath string, log *zap.Logger) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, log: log}
}

func (a *Adapter) Probe(ctx context.Context, path string) (types.MediaInfo, error) {
	if err := checkFile(path); err != nil {
		return types.MediaInfo{}, err
	}
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	b, err := cmd.Output()
	if err != nil {
		return types.MediaInfo{}, &types.BackendError{Op: "ffprobe " + path, Err: err, Output: stderr.String()}
	}
	info, err := parseProbe(b)
	if err != nil {
		return types.MediaInfo{}, &types.BackendError{Op: "ffprobe " + path, Err: err}
	}
	return info, nil
}

func (a *Adapter) OpenAudio(ctx context.Context, path string) (ports.AudioClip, error) {
	info, err := a.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if !info.HasAudio {
		return nil, types.Invalid("audio", "%s has no audio stream", path)
	}
	if info.Duration <= 0 {
		return nil, types.Invalid("audio", "%s has no usable duration", path)
	}
	return newAudioTrack(path, info.Duration), nil
}

func (a *Adapter) Render(ctx context.Context, spec ports.RenderSpec) error {
	args, err := renderArgs(spec)
	if err != nil {
		return err
	}
	a.log.Debug("ffmpeg render", zap.String("bin", a.ffmpeg), zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return &types.BackendError{Op: "ffmpeg render", Err: err, Output: tail(string(b), 40)}
	}
	return nil
}

func renderArgs(spec ports.RenderSpec) ([]string, error) {
	if spec.VideoPath == "" {
		return nil, types.Invalid("video", "path is empty")
	}
	if spec.OutputPath == "" {
		return nil, types.Invalid("output", "path is empty")
	}
	track, ok := spec.Audio.(*AudioTrack)
	if !ok || track == nil {
		return nil, types.Invalid("audio", "clip %T was not opened by the ffmpeg backend", spec.Audio)
	}

	video := ffmpeg.Input(spec.VideoPath).Video()
	if spec.SubtitlesPath != "" {
		video = video.Filter("subtitles", ffmpeg.Args{escapeFilterPath(spec.SubtitlesPath)})
	}

	vcodec := spec.VideoCodec
	if vcodec == "" {
		vcodec = DefaultVideoCodec
	}
	acodec := spec.AudioCodec
	if acodec == "" {
		acodec = DefaultAudioCodec
	}
	kw := ffmpeg.KwArgs{
		"c:v":      vcodec,
		"c:a":      acodec,
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
	}
	if vcodec == DefaultVideoCodec {
		kw["preset"] = "veryfast"
		kw["crf"] = "18"
	}
	if spec.FPS > 0 {
		kw["r"] = strconv.FormatFloat(spec.FPS, 'f', -1, 64)
	}
	if spec.MaxDuration > 0 {
		kw["t"] = fmtSeconds(spec.MaxDuration)
	}

	out := ffmpeg.Output([]*ffmpeg.Stream{video, track.stream()}, spec.OutputPath, kw).OverWriteOutput()
	return out.GetArgs(), nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

func parseProbe(b []byte) (types.MediaInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(b, &p); err != nil {
		return types.MediaInfo{}, fmt.Errorf("decode probe json: %w", err)
	}

	var info types.MediaInfo
	info.Duration = parseFloat(p.Format.Duration)
	for _, s := range p.Streams {
		switch s.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.Width = s.Width
			info.Height = s.Height
			info.FPS = parseRate(s.AvgFrameRate)
			if info.FPS <= 0 {
				info.FPS = parseRate(s.RFrameRate)
			}
		case "audio":
			info.HasAudio = true
		default:
			continue
		}
		// Some containers only report per-stream durations.
		if d := parseFloat(s.Duration); info.Duration <= 0 && d > 0 {
			info.Duration = d
		}
	}
	if !info.HasVideo && !info.HasAudio {
		return types.MediaInfo{}, errors.New("no audio or video streams")
	}
	return info, nil
}

func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return parseFloat(s)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func checkFile(path string) error {
	if path == "" {
		return types.Invalid("path", "is empty")
	}
	st, err := os.Stat(path)
	if err != nil {
		return types.Invalid(path, "%v", err)
	}
	if st.IsDir() {
		return types.Invalid(path, "is a directory")
	}
	return nil
}

// escapeFilterPath escapes a path for use as a filter option value.
// ffmpeg-go escapes the filtergraph level on top of this.
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}

// tail keeps the last n lines; ffmpeg prints the actual failure at the end
// after a long banner.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
