package subtitles

import (
	"fmt"
	"strings"
	"testing"

	"reel-pipeline/types"

	"google.golang.org/api/googleapi"
)

func TestFormatSRT(t *testing.T) {
	segments := []types.SubtitleSegment{
		{Start: 0, End: 1.5, Text: "Hello there."},
		{Start: 1.5, End: 3.25, Text: "  Welcome back.  "},
	}
	got := FormatSRT(segments)
	want := "1\n00:00:00,000 --> 00:00:01,500\nHello there.\n\n" +
		"2\n00:00:01,500 --> 00:00:03,250\nWelcome back.\n\n"
	if got != want {
		t.Errorf("FormatSRT =\n%q\nwant\n%q", got, want)
	}
}

func TestSRTTimestamp(t *testing.T) {
	tests := []struct {
		sec  float64
		want string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.042, "00:01:01,042"},
		{3661.25, "01:01:01,250"},
		{-2, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := srtTimestamp(tt.sec); got != tt.want {
			t.Errorf("srtTimestamp(%v) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestIsOverloaded(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&googleapi.Error{Code: 429}, true},
		{&googleapi.Error{Code: 503}, true},
		{&googleapi.Error{Code: 500}, true},
		{&googleapi.Error{Code: 400}, false},
		{fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 429}), true},
		{fmt.Errorf("the model is overloaded"), true},
		{fmt.Errorf("service UNAVAILABLE right now"), true},
		{fmt.Errorf("invalid argument"), false},
	}
	for _, tt := range tests {
		if got := isOverloaded(tt.err); got != tt.want {
			t.Errorf("isOverloaded(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestFormatSRTEmpty(t *testing.T) {
	if got := FormatSRT(nil); got != "" {
		t.Errorf("FormatSRT(nil) = %q, want empty", got)
	}
}

func TestFormatSRTIndexesSequentially(t *testing.T) {
	segments := make([]types.SubtitleSegment, 3)
	for i := range segments {
		segments[i] = types.SubtitleSegment{Start: float64(i), End: float64(i + 1), Text: "x"}
	}
	out := FormatSRT(segments)
	for i := 1; i <= 3; i++ {
		if !strings.Contains(out, fmt.Sprintf("%d\n%02d:", i, 0)) {
			t.Errorf("missing index %d in output:\n%s", i, out)
		}
	}
}
