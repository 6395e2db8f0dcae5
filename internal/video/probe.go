package video

import (
	"fmt"
	"os/exec"
	"strings"
)

// Capabilities is what Probe found usable for a job.
type Capabilities struct {
	// Encoder is the ffmpeg video encoder to use, or "libx264 (in-process)".
	Encoder string
	// Audio reports whether AAC encoding is available.
	Audio bool
}

// Probe checks before any encoder is created that the tools for s exist.
// Missing audio support is not an error: the export degrades to video only.
func Probe(s Settings) (Capabilities, error) {
	bin := s.ffmpeg()
	if _, err := exec.LookPath(bin); err != nil {
		// the muxer always needs ffmpeg
		return Capabilities{}, fmt.Errorf("%w: %s not found", ErrCapabilityUnavailable, bin)
	}
	out, err := exec.Command(bin, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return Capabilities{}, fmt.Errorf("%w: %s -encoders: %v", ErrCapabilityUnavailable, bin, err)
	}
	return capabilities(s, string(out))
}

func capabilities(s Settings, listing string) (Capabilities, error) {
	has := func(name string) bool {
		for _, line := range strings.Split(listing, "\n") {
			if f := strings.Fields(line); len(f) >= 2 && f[1] == name {
				return true
			}
		}
		return false
	}
	c := Capabilities{Audio: has("aac")}

	switch {
	case s.Backend == BackendX264:
		if s.Alpha {
			return c, fmt.Errorf("%w: x264 cannot carry alpha", ErrCapabilityUnavailable)
		}
		c.Encoder = "libx264 (in-process)"
	case s.Alpha:
		if !has("prores_ks") {
			return c, fmt.Errorf("%w: prores_ks is required for alpha video", ErrCapabilityUnavailable)
		}
		c.Encoder = "prores_ks"
	default:
		enc := s.Encoder
		if enc == "" {
			enc = "libx264"
			for _, hw := range []string{"h264_videotoolbox", "h264_nvenc"} {
				if has(hw) {
					enc = hw
					break
				}
			}
		}
		if !has(enc) {
			return c, fmt.Errorf("%w: ffmpeg has no %s encoder", ErrCapabilityUnavailable, enc)
		}
		c.Encoder = enc
	}
	return c, nil
}
