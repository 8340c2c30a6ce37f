package compose

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"reel-pipeline/config"
	"reel-pipeline/types"

	log "github.com/sirupsen/logrus"
)

// Composer assembles the final video with ffmpeg: the base video is
// scaled and padded to the target resolution, timed image overlays
// are composited in input order (last write wins where windows
// overlap), subtitles are burned in, and an optional separate audio
// track replaces the base audio.
type Composer struct {
	cfg config.ComposeConfig
	sub config.SubtitlesConfig
}

// New creates a Composer.
func New(cfg config.ComposeConfig, sub config.SubtitlesConfig) *Composer {
	return &Composer{cfg: cfg, sub: sub}
}

// Compose renders the final video into outputDir and returns its path.
func (c *Composer) Compose(ctx context.Context, baseVideo, audioPath string, overlays []types.OverlayAsset, srtPath, outputDir string) (string, error) {
	log.Infof("[compose] Assembling final video (%d overlays)...", len(overlays))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	outFile := filepath.Join(outputDir, "final_video.mp4")

	args := []string{"-y", "-i", baseVideo}
	for _, ov := range overlays {
		args = append(args, "-i", ov.Path)
	}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}

	filter := BuildFilterGraph(c.cfg, c.sub, overlays, srtPath)
	args = append(args, "-filter_complex", filter, "-map", "[vout]")

	if audioPath != "" {
		audioInput := 1 + len(overlays)
		args = append(args, "-map", fmt.Sprintf("%d:a:0", audioInput))
	} else {
		args = append(args, "-map", "0:a?")
	}

	args = append(args,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", fmt.Sprintf("%d", c.cfg.CRF),
		"-r", fmt.Sprintf("%d", c.cfg.FPS),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outFile,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg compose failed: %w", err)
	}
	if err := verifyOutput(outFile); err != nil {
		return "", err
	}

	log.Infof("[compose] ✅ Final video ready: %s", outFile)
	return outFile, nil
}

// BuildFilterGraph constructs the full filter_complex string. Input 0
// is the base video, inputs 1..N the overlay images in order. Each
// overlay is only enabled inside its [start,end) window; chaining the
// overlay nodes in input order gives last-write-wins on overlap.
func BuildFilterGraph(cfg config.ComposeConfig, sub config.SubtitlesConfig, overlays []types.OverlayAsset, srtPath string) string {
	var parts []string

	parts = append(parts, fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1[base0]",
		cfg.Width, cfg.Height, cfg.Width, cfg.Height,
	))

	current := "base0"
	for i, ov := range overlays {
		scaled := fmt.Sprintf("ov%d", i)
		next := fmt.Sprintf("base%d", i+1)
		parts = append(parts, fmt.Sprintf(
			"[%d:v]scale=%d:-1[%s]", i+1, cfg.Width, scaled,
		))
		parts = append(parts, fmt.Sprintf(
			"[%s][%s]overlay=x=(W-w)/2:y=(H-h)/2:enable='between(t,%.3f,%.3f)'[%s]",
			current, scaled, ov.StartTime, ov.EndTime, next,
		))
		current = next
	}

	if srtPath != "" {
		parts = append(parts, fmt.Sprintf("[%s]%s[vout]", current, SubtitleFilter(sub, srtPath)))
	} else {
		parts = append(parts, fmt.Sprintf("[%s]null[vout]", current))
	}

	return strings.Join(parts, ";")
}

// SubtitleFilter builds the styled burn-in filter.
func SubtitleFilter(sub config.SubtitlesConfig, srtPath string) string {
	return fmt.Sprintf(
		"subtitles=%s:force_style='FontName=%s,FontSize=%d,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=%.0f,Alignment=2,MarginV=%d'",
		EscapeSubtitlePath(srtPath),
		sub.Font,
		sub.FontSize,
		sub.StrokeWidth,
		sub.MarginBottom,
	)
}

// EscapeSubtitlePath escapes colons and backslashes for the ffmpeg
// subtitles filter.
func EscapeSubtitlePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}

// verifyOutput treats a missing or zero-byte file from a zero-exit
// ffmpeg as a synthesis failure in its own right.
func verifyOutput(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("ffmpeg exited 0 but produced no output at %s", path)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("ffmpeg exited 0 but output %s is empty", path)
	}
	return nil
}
