//go:build integration

package itest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

const cliTimeout = 60 * time.Second

type robustCase struct {
	name            string
	args            func(t *testing.T, fx fixtures) []string
	env             map[string]string
	wantContains    []string
	wantNotContains []string
}

type fixtures struct {
	dir   string
	video string
	audio string
	text  string
}

type cliRunResult struct {
	exitCode int
	output   string
}

func TestRobustness_ArgsValidation(t *testing.T) {
	cases := []robustCase{
		{
			name:         "unknown subcommand",
			args:         withInputs("bogus"),
			wantContains: []string{`unknown command "bogus"`},
		},
		{
			name:         "positional arg",
			args:         withInputs("swap", "extra.mp4"),
			wantContains: []string{`unknown command "extra.mp4"`},
		},
		{
			name:         "unknown flag",
			args:         withInputs("overlay", "--wat"),
			wantContains: []string{"unknown flag: --wat"},
		},
		{
			name:         "fit is swap only",
			args:         withInputs("overlay", "--fit"),
			wantContains: []string{"unknown flag: --fit"},
		},
		{
			name:         "fps non number",
			args:         withInputs("swap", "--fps", "nope"),
			wantContains: []string{`invalid argument "nope" for "--fps"`},
		},
		{
			name:         "negative tail",
			args:         withInputs("overlay", "--tail", "-1"),
			wantContains: []string{"config: invalid input: tail: must be >= 0"},
		},
		{
			name: "job file with unknown key",
			args: func(t *testing.T, fx fixtures) []string {
				t.Helper()
				job := filepath.Join(fx.dir, "job.yaml")
				if err := os.WriteFile(job, []byte("videos: x.mp4\n"), 0o644); err != nil {
					t.Fatalf("write job fixture: %v", err)
				}
				return append(inputArgs(fx), "swap", "--job", job)
			},
			wantContains: []string{"field videos not found"},
		},
	}

	runRobustCases(t, cases)
}

func TestRobustness_InvalidInputMedia(t *testing.T) {
	cases := []robustCase{
		{
			name: "missing video",
			args: func(_ *testing.T, fx fixtures) []string {
				return []string{"swap", "--video", filepath.Join(fx.dir, "does-not-exist.mp4"), "--audio", fx.audio}
			},
			wantContains: []string{"config: invalid input: video: stat"},
		},
		{
			name: "audio is directory",
			args: func(_ *testing.T, fx fixtures) []string {
				return []string{"swap", "--video", fx.video, "--audio", fx.dir}
			},
			wantContains: []string{"config: invalid input: audio:", "is a directory"},
		},
		{
			name: "output overwrites input",
			args: func(_ *testing.T, fx fixtures) []string {
				return []string{"swap", "--video", fx.video, "--audio", fx.audio, "--out", fx.video}
			},
			wantContains: []string{"config: invalid input: output: must differ from the inputs"},
		},
		{
			name: "audio is not media",
			args: func(_ *testing.T, fx fixtures) []string {
				return []string{"overlay", "--video", fx.video, "--audio", fx.text, "--out", filepath.Join(fx.dir, "o.mp4")}
			},
			wantContains:    []string{"ffprobe", "render failed"},
			wantNotContains: []string{"config:"},
		},
		{
			name: "video without video stream",
			args: func(_ *testing.T, fx fixtures) []string {
				return []string{"swap", "--video", fx.audio, "--audio", fx.audio, "--out", filepath.Join(fx.dir, "o.mp4")}
			},
			wantContains: []string{"invalid input: video:", "has no video stream"},
		},
		{
			name: "ffprobe not installed",
			args: func(_ *testing.T, fx fixtures) []string {
				return append(inputArgs(fx), "swap")
			},
			env:          map[string]string{"FFPROBE_PATH": "/nonexistent/ffprobe"},
			wantContains: []string{"render failed", "/nonexistent/ffprobe"},
		},
		{
			name: "out points below a file",
			args: func(_ *testing.T, fx fixtures) []string {
				return []string{"swap", "--video", fx.video, "--audio", fx.audio, "--out", filepath.Join(fx.text, "o.mp4")}
			},
			wantContains: []string{"not a directory"},
		},
	}

	runRobustCases(t, cases)
}

func runRobustCases(t *testing.T, cases []robustCase) {
	t.Helper()
	repoRoot := mustRepoRoot(t)
	fx := makeFixtures(t)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := map[string]string{"REDUB_CACHE_DIR": filepath.Join(fx.dir, "cache")}
			res := runCLI(t, repoRoot, tc.args(t, fx), env, tc.env)
			if res.exitCode == 0 {
				t.Fatalf("expected non-zero exit code, got 0\noutput:\n%s", res.output)
			}
			for _, want := range tc.wantContains {
				if !strings.Contains(res.output, want) {
					t.Fatalf("expected output to contain %q\noutput:\n%s", want, res.output)
				}
			}
			for _, notWant := range tc.wantNotContains {
				if strings.Contains(res.output, notWant) {
					t.Fatalf("expected output to not contain %q\noutput:\n%s", notWant, res.output)
				}
			}
		})
	}
}

func makeFixtures(t *testing.T) fixtures {
	t.Helper()
	dir := t.TempDir()
	fx := fixtures{
		dir:   dir,
		video: filepath.Join(dir, "input_video.mp4"),
		audio: filepath.Join(dir, "new_audio.mp3"),
		text:  filepath.Join(dir, "not-media.txt"),
	}
	makeVideo(t, fx.video, 2)
	makeTone(t, fx.audio, 1)
	if err := os.WriteFile(fx.text, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write text fixture: %v", err)
	}
	return fx
}

func inputArgs(fx fixtures) []string {
	return []string{"--video", fx.video, "--audio", fx.audio, "--out", filepath.Join(fx.dir, "out.mp4")}
}

// withInputs prefixes valid inputs so that failures come from the args under test.
func withInputs(args ...string) func(t *testing.T, fx fixtures) []string {
	clone := append([]string(nil), args...)
	return func(t *testing.T, fx fixtures) []string {
		t.Helper()
		return append(inputArgs(fx), clone...)
	}
}

func runCLI(t *testing.T, repoRoot string, args []string, env ...map[string]string) cliRunResult {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmdArgs := append([]string{"run", "./cmd/redub"}, args...)
	cmd := exec.CommandContext(ctx, "go", cmdArgs...)
	cmd.Dir = repoRoot
	cmd.Env = mergeEnv(
		os.Environ(),
		map[string]string{
			"NO_COLOR": "1",
			"TERM":     "dumb",
		},
	)
	cmd.Env = mergeEnv(cmd.Env, env...)

	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("command timed out after %s: go %s", cliTimeout, strings.Join(cmdArgs, " "))
	}

	res := cliRunResult{output: string(out)}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
		return res
	}

	t.Fatalf("run command: %v\noutput:\n%s", err, string(out))
	return cliRunResult{}
}

func mergeEnv(base []string, overrides ...map[string]string) []string {
	env := make(map[string]string, len(base))
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		env[kv[:i]] = kv[i+1:]
	}
	for _, set := range overrides {
		for k, v := range set {
			env[k] = v
		}
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}
