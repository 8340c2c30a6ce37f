package compose

import (
	"strings"
	"testing"

	"reel-pipeline/config"
	"reel-pipeline/types"
)

var testCfg = config.ComposeConfig{Width: 1080, Height: 1920, FPS: 30, CRF: 22}

var testSub = config.SubtitlesConfig{
	Font: "Arial", FontSize: 14, StrokeWidth: 2, MarginBottom: 60,
}

func TestBuildFilterGraphNoOverlaysNoSubs(t *testing.T) {
	got := BuildFilterGraph(testCfg, testSub, nil, "")
	if !strings.Contains(got, "scale=1080:1920:force_original_aspect_ratio=decrease") {
		t.Errorf("missing scale stage: %s", got)
	}
	if !strings.HasSuffix(got, "[base0]null[vout]") {
		t.Errorf("expected null passthrough to [vout], got: %s", got)
	}
}

func TestBuildFilterGraphOverlayWindows(t *testing.T) {
	overlays := []types.OverlayAsset{
		{Path: "a.png", StartTime: 1, EndTime: 4},
		{Path: "b.png", StartTime: 3, EndTime: 6},
	}
	got := BuildFilterGraph(testCfg, testSub, overlays, "")

	if !strings.Contains(got, "enable='between(t,1.000,4.000)'") {
		t.Errorf("first overlay window missing: %s", got)
	}
	if !strings.Contains(got, "enable='between(t,3.000,6.000)'") {
		t.Errorf("second overlay window missing: %s", got)
	}

	// Input order drives chain order, so the later overlay sits on top
	// where windows overlap.
	first := strings.Index(got, "[base0][ov0]overlay")
	second := strings.Index(got, "[base1][ov1]overlay")
	if first == -1 || second == -1 || first > second {
		t.Errorf("overlay chain out of order: %s", got)
	}
	if !strings.Contains(got, "[base2]null[vout]") {
		t.Errorf("final node should chain from base2: %s", got)
	}
}

func TestBuildFilterGraphWithSubtitles(t *testing.T) {
	got := BuildFilterGraph(testCfg, testSub, nil, "/tmp/run/subtitles.srt")
	if !strings.Contains(got, "subtitles=/tmp/run/subtitles.srt") {
		t.Errorf("missing subtitles filter: %s", got)
	}
	if !strings.Contains(got, "FontName=Arial") || !strings.Contains(got, "MarginV=60") {
		t.Errorf("force_style not applied: %s", got)
	}
	if !strings.HasSuffix(got, "[vout]") {
		t.Errorf("graph must end at [vout]: %s", got)
	}
}

func TestEscapeSubtitlePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tmp/a.srt", "/tmp/a.srt"},
		{`C:\videos\a.srt`, `C\:/videos/a.srt`},
		{"/tmp/run:1/a.srt", `/tmp/run\:1/a.srt`},
	}
	for _, tt := range tests {
		if got := EscapeSubtitlePath(tt.in); got != tt.want {
			t.Errorf("EscapeSubtitlePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
