package jobfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Job is the on-disk form of a render job. Zero values mean "not set" so a
// job file only has to name what it overrides.
type Job struct {
	Video  string `yaml:"video"`
	Audio  string `yaml:"audio"`
	Output string `yaml:"output"`

	Bullets     []string `yaml:"bullets"`
	TailSeconds float64  `yaml:"tail_seconds"`
	Fit         *bool    `yaml:"fit"`

	VideoCodec string  `yaml:"video_codec"`
	AudioCodec string  `yaml:"audio_codec"`
	FPS        float64 `yaml:"fps"`

	Manifest string `yaml:"manifest"`
}

func Load(path string) (Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read job file: %w", err)
	}
	j, err := Parse(b)
	if err != nil {
		return Job{}, fmt.Errorf("job file %s: %w", path, err)
	}
	return j, nil
}

func Parse(b []byte) (Job, error) {
	var j Job
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&j); err != nil && !errors.Is(err, io.EOF) {
		return Job{}, err
	}
	if j.TailSeconds < 0 {
		return Job{}, errors.New("tail_seconds must be >= 0")
	}
	if j.FPS < 0 {
		return Job{}, errors.New("fps must be >= 0")
	}
	return j, nil
}
