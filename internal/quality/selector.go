// Package quality defines the closed set of output variants a user can
// request for a media URL.
package quality

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the selector variants.
type Kind int

const (
	// KindBest picks the highest quality the source offers.
	KindBest Kind = iota
	// KindHeight caps the vertical resolution.
	KindHeight
	// KindAudio extracts an audio-only file.
	KindAudio
	// KindGIF downloads video and converts it to an animated image.
	KindGIF
)

// Selector is a user's chosen output variant. The zero value is Best.
type Selector struct {
	Kind   Kind
	Height int // set only for KindHeight
}

var (
	Best  = Selector{Kind: KindBest}
	Audio = Selector{Kind: KindAudio}
	GIF   = Selector{Kind: KindGIF}
)

// AtMost returns a selector capped at the given height.
func AtMost(height int) Selector {
	return Selector{Kind: KindHeight, Height: height}
}

// Parse decodes the wire form: best, audio, gif, or h<height>.
func Parse(raw string) (Selector, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "best":
		return Best, nil
	case "audio":
		return Audio, nil
	case "gif":
		return GIF, nil
	}
	if strings.HasPrefix(raw, "h") {
		height, err := strconv.Atoi(raw[1:])
		if err == nil && height > 0 {
			return AtMost(height), nil
		}
	}
	return Selector{}, fmt.Errorf("invalid quality selector: %q", raw)
}

// String returns the wire form used in callback tokens and DB records.
func (s Selector) String() string {
	switch s.Kind {
	case KindHeight:
		return "h" + strconv.Itoa(s.Height)
	case KindAudio:
		return "audio"
	case KindGIF:
		return "gif"
	default:
		return "best"
	}
}

// Label returns the human-readable description shown to the user.
func (s Selector) Label() string {
	switch s.Kind {
	case KindHeight:
		return fmt.Sprintf("%dp Video", s.Height)
	case KindAudio:
		return "Audio Only"
	case KindGIF:
		return "GIF (Full Video)"
	default:
		return "Best Quality Video"
	}
}
