package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

var (
	AudioExt = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
	ImageExt = []string{".jpg", ".jpeg", ".png"}
	VideoExt = []string{".mp4", ".mov", ".webm", ".mkv", ".m4v"}
	// BackgroundExt covers everything usable as a background layer.
	BackgroundExt = slices.Concat(ImageExt, VideoExt, []string{".pdf"})
)

// InitResourceLimits поднимает лимит открытых файлов: ffmpeg-процессы,
// пайпы и логотипы держат много дескрипторов одновременно.
func InitResourceLimits() {
	var rLimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}
	if rLimit.Cur >= 2048 {
		return
	}

	rLimit.Cur = min(2048, rLimit.Max)
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
		return
	}
	fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
}

// FindLatest возвращает самый свежий файл в dir с одним из расширений exts.
// Если dir указывает на файл, поиск идет в его папке.
func FindLatest(dir string, exts []string) (string, error) {
	if fi, err := os.Stat(dir); err != nil {
		return "", err
	} else if !fi.IsDir() {
		dir = filepath.Dir(dir)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time
	for _, f := range files {
		if f.IsDir() || !slices.Contains(exts, strings.ToLower(filepath.Ext(f.Name()))) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

func FindLatestAudio(dir string) (string, error)      { return FindLatest(dir, AudioExt) }
func FindLatestBackground(dir string) (string, error) { return FindLatest(dir, BackgroundExt) }

// MediaDuration asks ffprobe for the container duration of path in seconds.
func MediaDuration(ffprobeBin, path string) (float64, error) {
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	cmd := exec.Command(ffprobeBin, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %v, output: %s", path, err, strings.TrimSpace(string(out)))
	}
	return parseDuration(string(out))
}

func parseDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("duration unknown")
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", s, err)
	}
	return d, nil
}

// BestH264Encoder выбирает аппаратный энкодер, если ffmpeg его знает.
// Приоритеты: VideoToolbox (macOS), NVENC, затем программный libx264.
func BestH264Encoder(ffmpegBin string) string {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	out, err := exec.Command(ffmpegBin, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// HasEncoder reports whether ffmpeg lists the named encoder.
func HasEncoder(ffmpegBin, name string) bool {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	out, err := exec.Command(ffmpegBin, "-hide_banner", "-encoders").CombinedOutput()
	return err == nil && strings.Contains(string(out), " "+name+" ")
}

// DefaultQuality подбирает качество под энкодер, если пользователь его не задал.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // битрейт = Q*100 кбит/с
	case "h264_nvenc":
		return 28
	default:
		return 23 // CRF
	}
}

// QualityArgs переводит качество в аргументы конкретного энкодера.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default: // libx264
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}
