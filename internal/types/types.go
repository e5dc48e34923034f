package types

type MediaInfo struct {
	Duration float64
	FPS      float64
	Width    int
	Height   int
	HasVideo bool
	HasAudio bool
}

type Overlay struct {
	Text  string
	Start float64
	End   float64

	// X is the left padding in pixels; the text block is vertically centered.
	X           int
	FontName    string
	FontSize    int
	Color       string
	StrokeColor string
	StrokeWidth int
}

type Manifest struct {
	Mode   string `json:"mode"`
	Video  string `json:"video"`
	Audio  string `json:"audio"`
	Output string `json:"output"`

	VideoSec float64 `json:"video_sec"`
	AudioSec float64 `json:"audio_sec"`
	Action   string  `json:"action"`
	Repeats  int     `json:"repeats,omitempty"`

	Overlay  *ManifestOverlay `json:"overlay,omitempty"`
	Uploaded string           `json:"uploaded,omitempty"`
}

type ManifestOverlay struct {
	StartSec float64  `json:"start_sec"`
	EndSec   float64  `json:"end_sec"`
	Bullets  []string `json:"bullets"`
}
