package ports

import (
	"context"

	"github.com/forPelevin/redub/internal/domain/reconcile"
	"github.com/forPelevin/redub/internal/types"
)

// AudioClip is an audio source the backend can trim, loop and later encode.
type AudioClip interface {
	reconcile.Clip
	Close() error
}

type RenderSpec struct {
	VideoPath string
	Audio     reconcile.Clip
	// SubtitlesPath, when set, is burned into the video stream.
	SubtitlesPath string
	OutputPath    string

	VideoCodec string
	AudioCodec string
	FPS        float64
	// MaxDuration caps the output length in seconds; 0 means uncapped.
	MaxDuration float64
}

type MediaBackend interface {
	Probe(ctx context.Context, path string) (types.MediaInfo, error)
	OpenAudio(ctx context.Context, path string) (AudioClip, error)
	Render(ctx context.Context, spec RenderSpec) error
}

type Publisher interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}
