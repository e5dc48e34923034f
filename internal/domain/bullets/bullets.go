package bullets

import "strings"

const Marker = "• "

// Format prefixes each point with a bullet and separates entries with a
// blank line. No points yields empty text.
func Format(points []string) string {
	if len(points) == 0 {
		return ""
	}
	lines := make([]string, 0, len(points))
	for _, p := range points {
		lines = append(lines, Marker+p)
	}
	return strings.Join(lines, "\n\n")
}

// Window returns the [start, end) range in which the text is shown: the last
// tail seconds of the video, starting at 0 for videos shorter than tail.
func Window(videoDur, tail float64) (float64, float64) {
	start := videoDur - tail
	if start < 0 {
		start = 0
	}
	return start, start + tail
}
