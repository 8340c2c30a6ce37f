package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteWAVHeader(t *testing.T) {
	pcm := make([]byte, 48000) // 1 second of s16le mono at 24kHz
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := writeWAV(path, pcm, 24000); err != nil {
		t.Fatalf("writeWAV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if len(data) != 44+len(pcm) {
		t.Fatalf("file size = %d, want %d", len(data), 44+len(pcm))
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		t.Error("missing fmt/data chunks")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 24000 {
		t.Errorf("sample rate = %d, want 24000", rate)
	}
	if channels := binary.LittleEndian.Uint16(data[22:24]); channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}
	if dataLen := binary.LittleEndian.Uint32(data[40:44]); int(dataLen) != len(pcm) {
		t.Errorf("data chunk length = %d, want %d", dataLen, len(pcm))
	}
}

func TestPCMDuration(t *testing.T) {
	tests := []struct {
		bytes      int
		sampleRate int
		want       float64
	}{
		{48000, 24000, 1.0},
		{24000, 24000, 0.5},
		{0, 24000, 0},
		{48000, 0, 0},
	}
	for _, tt := range tests {
		if got := pcmDuration(tt.bytes, tt.sampleRate); got != tt.want {
			t.Errorf("pcmDuration(%d, %d) = %v, want %v", tt.bytes, tt.sampleRate, got, tt.want)
		}
	}
}
