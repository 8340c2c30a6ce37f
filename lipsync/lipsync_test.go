package lipsync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVerifyOutputMissing(t *testing.T) {
	err := VerifyOutput(filepath.Join(t.TempDir(), "nope.mp4"))
	if err == nil {
		t.Fatal("expected error for missing output")
	}
	if !strings.Contains(err.Error(), "no output file") {
		t.Errorf("err = %v, want missing-file classification", err)
	}
}

func TestVerifyOutputEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mp4")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	err := VerifyOutput(path)
	if err == nil {
		t.Fatal("expected error for zero-byte output")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("err = %v, want empty-file classification", err)
	}
}

func TestVerifyOutputValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.mp4")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := VerifyOutput(path); err != nil {
		t.Errorf("VerifyOutput on non-empty file: %v", err)
	}
}
