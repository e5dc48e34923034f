package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/redub/internal/usecase"
)

const (
	defaultVideo  = "input_video.mp4"
	defaultAudio  = "new_audio.mp3"
	defaultOutput = "output_video.mp4"
)

var defaultBullets = []string{
	"First important point",
	"Second key message",
	"Third crucial information",
	"Final takeaway",
}

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "redub",
		Short:        "Replace a video's audio track, optionally with a bullet-point outro",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	pf := root.PersistentFlags()
	pf.String("video", defaultVideo, "Input video")
	pf.String("audio", defaultAudio, "New audio track")
	pf.String("out", defaultOutput, "Output video")
	pf.String("job", "", "YAML job file; explicit flags win over it")
	pf.String("manifest", "", "Write a JSON run summary to this path")
	pf.Float64("fps", 0, "Output frame rate (0 keeps the input's)")
	pf.String("vcodec", "libx264", "Output video codec")
	pf.String("acodec", "aac", "Output audio codec")

	swap := &cobra.Command{
		Use:   "swap",
		Short: "Replace the audio track; output keeps the video's length",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, usecase.ModeSwap)
		},
	}
	swap.Flags().Bool("fit", false, "Trim or loop the audio to the video's length")

	overlay := &cobra.Command{
		Use:   "overlay",
		Short: "Replace the audio (fitted to the video) and show bullet points at the end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, usecase.ModeOverlay)
		},
	}
	overlay.Flags().StringArray("bullet", defaultBullets, "Bullet point (repeatable)")
	overlay.Flags().Float64("tail", usecase.DefaultTailSeconds, "Show the bullets for the last N seconds")

	root.AddCommand(swap, overlay)
	return root
}
