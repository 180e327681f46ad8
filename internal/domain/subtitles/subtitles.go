// Package subtitles renders a translation to SRT or WebVTT so the dubbed
// text can be reviewed or burned in alongside the audio.
package subtitles

import (
	"fmt"
	"math"
	"strings"

	"github.com/supernan/redub/internal/transcript"
)

// Format selects the subtitle flavor.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "srt":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("unknown subtitle format %q (want srt or vtt)", s)
	}
}

// Extension returns the file extension for the format, with the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Render produces a subtitle document with one cue per translated
// segment. Cue times come from the segment spans; segments with empty
// target text produce no cue.
func Render(tl transcript.Translation, format Format) (string, error) {
	switch format {
	case FormatSRT:
		return renderSRT(tl), nil
	case FormatVTT:
		return renderVTT(tl), nil
	default:
		return "", fmt.Errorf("unknown subtitle format %q", string(format))
	}
}

func renderSRT(tl transcript.Translation) string {
	var b strings.Builder
	cue := 0
	for _, seg := range tl.Segments {
		text := cueText(seg.TargetText)
		if text == "" {
			continue
		}
		cue++
		fmt.Fprintf(&b, "%d\n", cue)
		b.WriteString(srtTime(seg.Start))
		b.WriteString(" --> ")
		b.WriteString(srtTime(seg.End))
		b.WriteString("\n")
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String()
}

func renderVTT(tl transcript.Translation) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range tl.Segments {
		text := cueText(seg.TargetText)
		if text == "" {
			continue
		}
		b.WriteString(vttTime(seg.Start))
		b.WriteString(" --> ")
		b.WriteString(vttTime(seg.End))
		b.WriteString("\n")
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// srtTime formats seconds as HH:MM:SS,mmm (SRT uses a comma before the
// millisecond field).
func srtTime(sec float64) string {
	return stamp(sec, ',')
}

// vttTime formats seconds as HH:MM:SS.mmm.
func vttTime(sec float64) string {
	return stamp(sec, '.')
}

func stamp(sec float64, msSep byte) string {
	if sec < 0 {
		sec = 0
	}
	total := int64(math.Round(sec * 1000))
	h := total / 3600000
	total -= h * 3600000
	m := total / 60000
	total -= m * 60000
	s := total / 1000
	ms := total - s*1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, msSep, ms)
}

// cueText flattens segment text to a single cue-safe line. A literal
// "-->" in the text would terminate the cue early.
func cueText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "-->", "->")
	return strings.TrimSpace(text)
}
