package types

import "time"

// TaskStatus is the lifecycle status stored in the sheet's status column.
type TaskStatus string

const (
	StatusNotPosted  TaskStatus = "Not Posted"
	StatusProcessing TaskStatus = "Processing"
	StatusPosted     TaskStatus = "Posted"
)

// ErrorStatus builds the "Error: ..." status written on a failed run.
// The message is truncated so it fits comfortably in a sheet cell.
func ErrorStatus(msg string) TaskStatus {
	const maxLen = 180
	if len(msg) > maxLen {
		msg = msg[:maxLen-3] + "..."
	}
	return TaskStatus("Error: " + msg)
}

// Task is one row of work claimed from the sheet.
type Task struct {
	RowID        int    `json:"row_id"` // 1-based sheet row number
	Topic        string `json:"topic"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	YouTubeURL   string `json:"youtube_url"`
	InstagramURL string `json:"instagram_url"`
	FacebookURL  string `json:"facebook_url"`
	Timestamp    string `json:"timestamp"`
}

// Links holds the per-platform URLs written back to the sheet.
// Empty fields are left untouched in the sheet so partial success stays visible.
type Links struct {
	YouTube   string `json:"youtube"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
}

// Segment is one narration unit of a generated script.
type Segment struct {
	Text string `json:"text"`
	Tone string `json:"tone"`
}

// Script is the structured output of the script generation stage.
type Script struct {
	Topic    string    `json:"topic"`
	FullText string    `json:"full_text"`
	Segments []Segment `json:"segments"`
}

// AudioResult is the output of the TTS stage.
type AudioResult struct {
	FilePath    string  `json:"file_path"`
	DurationSec float64 `json:"duration_sec"`
}

// SubtitleSegment is one timed caption line.
type SubtitleSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Subtitles is the output of the transcription stage.
type Subtitles struct {
	SRTPath  string            `json:"srt_path"`
	Segments []SubtitleSegment `json:"segments"`
}

// OverlayAsset is one timed image composited over the base video.
// Assets are applied in input order; where windows overlap the later
// asset wins.
type OverlayAsset struct {
	Path      string  `json:"path"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Platform identifies a publish destination.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
)

// PublishResult is the per-platform outcome of the upload fan-out.
// Exactly one of URL/Error is populated.
type PublishResult struct {
	Platform Platform `json:"platform"`
	Success  bool     `json:"success"`
	URL      string   `json:"url,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Outcome summarizes a full publish fan-out.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeAllFailed      Outcome = "all_failed"
)

// RunState tracks one pipeline run. It lives only in process memory;
// the snapshot saved next to the artifacts is for operator inspection.
type RunState struct {
	RunID       string            `json:"run_id"`
	Task        *Task             `json:"task,omitempty"`
	CurrentStep string            `json:"current_step"`
	Artifacts   map[string]string `json:"artifacts"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at,omitempty"`
	Error       string            `json:"error,omitempty"`
}
