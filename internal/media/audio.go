package media

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/zaf/resample"
)

// ErrNoAudio is returned when a media file carries no audio stream.
var ErrNoAudio = errors.New("no audio stream")

// PCM is interleaved signed 16-bit audio held in memory.
type PCM struct {
	Rate     int
	Channels int
	Samples  []int16
}

// Frames is the number of sample frames (one sample per channel).
func (p PCM) Frames() int {
	if p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Duration in seconds.
func (p PCM) Duration() float64 {
	if p.Rate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.Rate)
}

// FrameAt converts seconds to a sample frame offset, clamped to the buffer.
func (p PCM) FrameAt(seconds float64) int {
	f := int(math.Round(seconds * float64(p.Rate)))
	return max(0, min(f, p.Frames()))
}

// Slice returns the audio between start and end seconds. The result shares
// the underlying buffer.
func (p PCM) Slice(start, end float64) PCM {
	a, b := p.FrameAt(start), p.FrameAt(end)
	if b < a {
		b = a
	}
	return PCM{Rate: p.Rate, Channels: p.Channels, Samples: p.Samples[a*p.Channels : b*p.Channels]}
}

// Chunk is a block of audio with its position in the stream.
type Chunk struct {
	// Offset is the first sample frame of the chunk.
	Offset  int
	Samples []int16
}

// Timestamp of the chunk in microseconds.
func (c Chunk) Timestamp(rate int) int64 {
	return int64(c.Offset) * 1_000_000 / int64(rate)
}

// Chunks splits the buffer into blocks of size sample frames; the last one
// may be shorter.
func (p PCM) Chunks(size int) []Chunk {
	if size <= 0 || p.Channels <= 0 {
		return nil
	}
	var out []Chunk
	for off := 0; off < p.Frames(); off += size {
		end := min(off+size, p.Frames())
		out = append(out, Chunk{Offset: off, Samples: p.Samples[off*p.Channels : end*p.Channels]})
	}
	return out
}

// Bytes encodes the samples as little-endian s16.
func (p PCM) Bytes() []byte {
	return samplesToBytes(p.Samples)
}

func samplesToBytes(s []int16) []byte {
	b := make([]byte, len(s)*2)
	for i, v := range s {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func bytesToSamples(b []byte) []int16 {
	s := make([]int16, len(b)/2)
	for i := range s {
		s[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return s
}

// Resample converts to rate with libsoxr. Same-rate input is returned as is.
func (p PCM) Resample(rate int) (PCM, error) {
	if rate == p.Rate || len(p.Samples) == 0 {
		p.Rate = rate
		return p, nil
	}
	var out bytes.Buffer
	res, err := resample.New(&out, float64(p.Rate), float64(rate), p.Channels, resample.I16, resample.HighQ)
	if err != nil {
		return PCM{}, fmt.Errorf("resample init: %w", err)
	}
	if _, err := res.Write(p.Bytes()); err != nil {
		res.Close()
		return PCM{}, fmt.Errorf("resample: %w", err)
	}
	if err := res.Close(); err != nil {
		return PCM{}, fmt.Errorf("resample flush: %w", err)
	}
	return PCM{Rate: rate, Channels: p.Channels, Samples: bytesToSamples(out.Bytes())}, nil
}

// DecodeMP3 decodes a whole MP3 stream. go-mp3 always yields 16-bit stereo.
func DecodeMP3(r io.Reader) (PCM, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return PCM{}, fmt.Errorf("mp3 decode failed: %w", err)
	}
	data, err := io.ReadAll(dec)
	if err != nil {
		return PCM{}, fmt.Errorf("mp3 read failed: %w", err)
	}
	return PCM{Rate: dec.SampleRate(), Channels: 2, Samples: bytesToSamples(data)}, nil
}

// ExtractAudio decodes the audio track of any ffmpeg-readable file to
// stereo s16 at rate.
func ExtractAudio(ctx context.Context, ffmpegBin, path string, rate int) (PCM, error) {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, ffmpegBin,
		"-v", "error",
		"-i", path,
		"-vn",
		"-ac", "2",
		"-ar", fmt.Sprintf("%d", rate),
		"-f", "s16le",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return PCM{}, err
	}
	if err := cmd.Start(); err != nil {
		return PCM{}, fmt.Errorf("ffmpeg start error: %w", err)
	}
	data, readErr := io.ReadAll(bufio.NewReader(stdout))
	if err := cmd.Wait(); err != nil {
		return PCM{}, fmt.Errorf("ffmpeg audio error: %v, output: %s", err, strings.TrimSpace(stderr.String()))
	}
	if readErr != nil {
		return PCM{}, readErr
	}
	if len(data) == 0 {
		return PCM{}, ErrNoAudio
	}
	return PCM{Rate: rate, Channels: 2, Samples: bytesToSamples(data)}, nil
}

// LoadAudio reads a soundtrack at rate: MP3 in-process, anything else
// through ffmpeg.
func LoadAudio(ctx context.Context, ffmpegBin, path string, rate int) (PCM, error) {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		f, err := os.Open(path)
		if err != nil {
			return PCM{}, err
		}
		defer f.Close()
		pcm, err := DecodeMP3(f)
		if err != nil {
			return PCM{}, err
		}
		return pcm.Resample(rate)
	}
	return ExtractAudio(ctx, ffmpegBin, path, rate)
}
