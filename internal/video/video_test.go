package video

import (
	"context"
	"errors"
	"image"
	"slices"
	"strings"
	"testing"
)

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestEncodeArgs(t *testing.T) {
	s := Settings{Encoder: "libx264", Quality: 23, Size: image.Pt(1920, 1080), FPS: 25}
	args := encodeArgs(s, "/tmp/v.mp4")

	checks := map[string]string{
		"-video_size":   "1920x1080",
		"-framerate":    "25",
		"-c:v":          "libx264",
		"-pix_fmt":      "yuv420p",
		"-g":            "60",
		"-crf":          "23",
		"-pixel_format": "rgba",
	}
	for flag, want := range checks {
		if got := argValue(args, flag); got != want {
			t.Errorf("%s = %q, want %q", flag, got, want)
		}
	}
	if args[len(args)-1] != "/tmp/v.mp4" {
		t.Errorf("output = %s", args[len(args)-1])
	}

	s.Alpha = true
	args = encodeArgs(s, "/tmp/v.mov")
	if argValue(args, "-c:v") != "prores_ks" || argValue(args, "-pix_fmt") != "yuva444p10le" {
		t.Errorf("alpha args = %v", args)
	}
	if slices.Contains(args, "-crf") {
		t.Error("alpha encode should not carry x264 quality")
	}
}

func TestAudioArgs(t *testing.T) {
	args := audioArgs(48000, 2, "a.m4a")
	if argValue(args, "-ar") != "48000" || argValue(args, "-ac") != "2" || argValue(args, "-c:a") != "aac" {
		t.Errorf("audio args = %v", args)
	}
}

func TestMuxArgs(t *testing.T) {
	v := Stream{Path: "video.h264", Format: "h264", FPS: 25}
	a := &Stream{Path: "audio.m4a"}

	got := strings.Join(muxArgs(v, a, "out.mp4"), " ")
	want := "-y -v error -f h264 -framerate 25 -i video.h264 -i audio.m4a -map 0:v:0 -map 1:a:0 -shortest -c copy -movflags +faststart out.mp4"
	if got != want {
		t.Errorf("muxArgs =\n%s\nwant\n%s", got, want)
	}

	got = strings.Join(muxArgs(Stream{Path: "video.mov"}, nil, "out.mov"), " ")
	want = "-y -v error -i video.mov -c copy -movflags +faststart out.mov"
	if got != want {
		t.Errorf("video-only muxArgs = %s", got)
	}
}

func TestPTSGuard(t *testing.T) {
	var g ptsGuard
	for _, pts := range []int64{0, 40000, 80000} {
		if err := g.check(pts); err != nil {
			t.Fatalf("check(%d): %v", pts, err)
		}
	}
	for _, pts := range []int64{80000, 10} {
		if err := g.check(pts); !errors.Is(err, ErrNonMonotonic) {
			t.Errorf("check(%d) = %v, want ErrNonMonotonic", pts, err)
		}
	}
}

const listing = `Encoders:
 V..... = Video
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 V....D h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)
 V....D prores_ks            Apple ProRes (iCodec Pro) (codec prores)
 A....D aac                  AAC (Advanced Audio Coding)
`

func TestCapabilities(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		listing string
		want    string
		audio   bool
		wantErr bool
	}{
		{"auto picks hardware", Settings{}, listing, "h264_nvenc", true, false},
		{"explicit encoder", Settings{Encoder: "libx264"}, listing, "libx264", true, false},
		{"missing encoder", Settings{Encoder: "h264_videotoolbox"}, listing, "", true, true},
		{"alpha prores", Settings{Alpha: true}, listing, "prores_ks", true, false},
		{"alpha without prores", Settings{Alpha: true}, " V....D libx264 x\n", "", false, true},
		{"x264 alpha", Settings{Backend: BackendX264, Alpha: true}, listing, "", true, true},
		{"no aac", Settings{}, " V....D libx264 x\n", "libx264", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := capabilities(tt.s, tt.listing)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if err != nil {
				if !errors.Is(err, ErrCapabilityUnavailable) {
					t.Errorf("err = %v, want ErrCapabilityUnavailable", err)
				}
				return
			}
			if c.Encoder != tt.want || c.Audio != tt.audio {
				t.Errorf("got %+v", c)
			}
		})
	}
}

func TestNewEncoderValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewEncoder(ctx, Settings{Size: image.Pt(0, 10), FPS: 25, WorkDir: t.TempDir()}); err == nil {
		t.Error("zero width accepted")
	}
	if _, err := NewEncoder(ctx, Settings{Size: image.Pt(10, 10), FPS: 25}); err == nil {
		t.Error("missing work dir accepted")
	}
	_, err := NewEncoder(ctx, Settings{Backend: BackendX264, Alpha: true, Size: image.Pt(10, 10), FPS: 25, WorkDir: t.TempDir()})
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("x264 alpha = %v", err)
	}
	_, err = NewEncoder(ctx, Settings{Backend: "vp9", Size: image.Pt(10, 10), FPS: 25, WorkDir: t.TempDir()})
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("unknown backend = %v", err)
	}
}

func TestS16LE(t *testing.T) {
	b := s16le([]int16{1, -2})
	want := []byte{0x01, 0x00, 0xfe, 0xff}
	if !slices.Equal(b, want) {
		t.Errorf("s16le = %x", b)
	}
}
