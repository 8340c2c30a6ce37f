package lipsync

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"reel-pipeline/config"

	log "github.com/sirupsen/logrus"
)

// Syncer runs the Wav2Lip inference process to lip-sync a face video
// against narration audio. The process blocks until inference exits;
// success requires a zero exit code AND a non-empty output file, since
// the inference script can exit 0 after writing nothing.
type Syncer struct {
	cfg config.LipSyncConfig
}

// New creates a lip-sync Syncer.
func New(cfg config.LipSyncConfig) *Syncer {
	return &Syncer{cfg: cfg}
}

// Sync produces a lip-synced video from audio and the configured face
// video. Returns the output path.
func (s *Syncer) Sync(ctx context.Context, audioPath, outputDir string) (string, error) {
	log.Info("[lipsync] Starting Wav2Lip inference...")

	if _, err := os.Stat(s.cfg.InferenceDir); err != nil {
		return "", fmt.Errorf("inference dir not found at %s: %w", s.cfg.InferenceDir, err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}

	outFile := filepath.Join(outputDir, "lipsync.mp4")
	python := s.cfg.Python
	if python == "" {
		python = "python3"
	}

	cmd := exec.CommandContext(ctx, python,
		filepath.Join(s.cfg.InferenceDir, "inference.py"),
		"--checkpoint_path", s.cfg.Checkpoint,
		"--face", s.cfg.FaceVideo,
		"--audio", audioPath,
		"--outfile", outFile,
		"--resize_factor", fmt.Sprintf("%d", s.cfg.ResizeFactor),
	)
	cmd.Dir = s.cfg.InferenceDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("wav2lip process failed: %w", err)
	}

	if err := VerifyOutput(outFile); err != nil {
		return "", err
	}

	log.Infof("[lipsync] ✅ Lip-synced video: %s", outFile)
	return outFile, nil
}

// VerifyOutput rejects missing and zero-byte artifacts. This failure
// is kept distinct from a non-zero process exit so operators can tell
// "inference crashed" from "inference silently produced nothing".
func VerifyOutput(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("wav2lip exited 0 but produced no output file at %s", path)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("wav2lip exited 0 but output file %s is empty", path)
	}
	return nil
}
