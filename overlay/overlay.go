package overlay

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"reel-pipeline/config"

	log "github.com/sirupsen/logrus"
)

// Renderer rasterizes an animated HTML overlay frame-by-frame with a
// headless browser and encodes the frames into a video with ffmpeg.
// A single failed frame capture aborts the whole render: a video with
// silently dropped frames is worse than no video.
type Renderer struct {
	cfg config.OverlayConfig
}

// New creates an overlay Renderer.
func New(cfg config.OverlayConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render writes the HTML to disk, captures durationSec*fps frames and
// encodes them at the configured frame rate. Returns the video path.
func (r *Renderer) Render(ctx context.Context, htmlContent string, durationSec float64, outputDir string) (string, error) {
	fps := r.cfg.FPS
	totalFrames := int(durationSec * float64(fps))
	log.Infof("[overlay] Rendering %d frames at %d fps...", totalFrames, fps)

	frameDir := filepath.Join(outputDir, "frames")
	if err := os.MkdirAll(frameDir, 0755); err != nil {
		return "", err
	}

	htmlFile := filepath.Join(outputDir, "overlay.html")
	if err := os.WriteFile(htmlFile, []byte(htmlContent), 0644); err != nil {
		return "", fmt.Errorf("write overlay html: %w", err)
	}

	chrome := r.cfg.ChromeBin
	if chrome == "" {
		chrome = "chromium"
	}

	frameMs := 1000 / fps
	for frame := 0; frame < totalFrames; frame++ {
		framePath := filepath.Join(frameDir, fmt.Sprintf("frame_%05d.png", frame))
		budget := frame * frameMs

		cmd := exec.CommandContext(ctx, chrome,
			"--headless=new",
			"--disable-gpu",
			"--mute-audio",
			fmt.Sprintf("--window-size=%s", r.cfg.WindowSize),
			fmt.Sprintf("--virtual-time-budget=%d", budget),
			fmt.Sprintf("--screenshot=%s", framePath),
			"file://"+htmlFile,
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			return "", fmt.Errorf("frame %d capture failed: %w\n%s", frame, err, out)
		}
		if fi, err := os.Stat(framePath); err != nil || fi.Size() == 0 {
			return "", fmt.Errorf("frame %d capture produced no image", frame)
		}
	}

	outFile := filepath.Join(outputDir, "overlay.mov")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", filepath.Join(frameDir, "frame_%05d.png"),
		"-c:v", "qtrle", // keeps the alpha channel for compositing
		outFile,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg frame encode failed: %w", err)
	}

	log.Infof("[overlay] ✅ Overlay video: %s", outFile)
	return outFile, nil
}
