package subtitles

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/redub/internal/types"
)

const (
	defaultPlayResX = 1920
	defaultPlayResY = 1080
	styleName       = "Bullets"
)

// RenderOverlayASS renders ov as a single-event ASS script sized to a
// width x height frame, so font size and margins are in video pixels.
func RenderOverlayASS(ov types.Overlay, width, height int) (string, error) {
	if strings.TrimSpace(ov.Text) == "" {
		return "", types.Invalid("overlay text", "is empty")
	}
	if ov.End <= ov.Start {
		return "", types.Invalid("overlay window", "end %.3f must be after start %.3f", ov.End, ov.Start)
	}
	if width <= 0 || height <= 0 {
		width, height = defaultPlayResX, defaultPlayResY
	}
	primary, err := assColor(ov.Color, "&H00FFFFFF")
	if err != nil {
		return "", err
	}
	outline, err := assColor(ov.StrokeColor, "&H00000000")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(assHeader(width, height))
	b.WriteString("\n")
	// Alignment 4 is middle-left: MarginL pads from the left edge and the
	// block is centered vertically.
	b.WriteString(fmt.Sprintf("Style: %s, %s, %d, %s, &H000000FF, %s, &H00000000, 0,0,0,0,100,100,0,0,1,%d,0,4, %d,0,0,1\n",
		styleName, fontName(ov.FontName), fontSize(ov.FontSize), primary, outline, max(ov.StrokeWidth, 0), max(ov.X, 0)))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	b.WriteString("Dialogue: 0,")
	b.WriteString(assTime(seconds(ov.Start)))
	b.WriteString(",")
	b.WriteString(assTime(seconds(ov.End)))
	b.WriteString(",")
	b.WriteString(styleName)
	b.WriteString(",,0,0,0,,")
	b.WriteString(textToASS(ov.Text))
	b.WriteString("\n")
	return b.String(), nil
}

func assHeader(width, height int) string {
	return fmt.Sprintf(strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
WrapStyle: 2
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
`), width, height)
}

// textToASS keeps empty lines: "\N\N" is how a blank line between bullets
// survives in the rendered block.
func textToASS(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = sanitizeASS(l)
	}
	return strings.Join(lines, `\N`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

var namedColors = map[string]string{
	"white":  "FFFFFF",
	"black":  "000000",
	"red":    "FF0000",
	"green":  "00FF00",
	"blue":   "0000FF",
	"yellow": "FFFF00",
}

// assColor converts a color name or #RRGGBB into ASS &HAABBGGRR.
func assColor(c, def string) (string, error) {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return def, nil
	}
	rgb, ok := namedColors[c]
	if !ok {
		rgb = strings.TrimPrefix(c, "#")
		if _, err := strconv.ParseUint(rgb, 16, 32); err != nil || len(rgb) != 6 {
			return "", types.Invalid("color", "unsupported value %q", c)
		}
	}
	rgb = strings.ToUpper(rgb)
	return "&H00" + rgb[4:6] + rgb[2:4] + rgb[0:2], nil
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimRight(s, " \t")
}

func fontName(n string) string {
	if n = strings.TrimSpace(n); n == "" {
		return "Arial"
	}
	return strings.ReplaceAll(n, ",", " ")
}

func fontSize(n int) int {
	if n <= 0 {
		return 30
	}
	return n
}

func seconds(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
