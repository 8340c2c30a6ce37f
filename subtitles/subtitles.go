package subtitles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reel-pipeline/config"
	"reel-pipeline/types"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const transcribePrompt = `Transcribe this narration audio into subtitle segments.
Each segment must be one short spoken phrase (max ~8 words) with accurate
start and end times in seconds. Cover the full audio with no gaps or overlaps.`

// segmentSchema constrains the model to a strict [{start,end,text}] array.
var segmentSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"start": {Type: genai.TypeNumber, Description: "segment start in seconds"},
			"end":   {Type: genai.TypeNumber, Description: "segment end in seconds"},
			"text":  {Type: genai.TypeString},
		},
		Required: []string{"start", "end", "text"},
	},
}

// Generator transcribes narration audio into timed subtitle segments
// and writes them out as an SRT file.
type Generator struct {
	cfg config.SubtitlesConfig
}

// New creates a subtitle Generator.
func New(cfg config.SubtitlesConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate transcribes the audio file and writes subtitles.srt into
// outputDir. Overloaded/unavailable backend errors are retried with
// exponential backoff up to the configured attempt ceiling; anything
// else propagates immediately.
func (g *Generator) Generate(ctx context.Context, audioFile, outputDir string) (*types.Subtitles, error) {
	log.Info("[subtitles] Transcribing narration via Gemini...")

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(audioFile)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.cfg.GeminiModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = segmentSchema

	var segments []types.SubtitleSegment
	for attempt := 1; ; attempt++ {
		segments, err = transcribe(ctx, model, data)
		if err == nil {
			break
		}
		if !isOverloaded(err) || attempt >= g.cfg.MaxAttempts {
			return nil, fmt.Errorf("transcription failed (attempt %d): %w", attempt, err)
		}
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Warnf("[subtitles] backend overloaded (attempt %d/%d), retrying in %s", attempt, g.cfg.MaxAttempts, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("transcription returned no segments")
	}

	srtFile := filepath.Join(outputDir, "subtitles.srt")
	if err := os.WriteFile(srtFile, []byte(FormatSRT(segments)), 0644); err != nil {
		return nil, fmt.Errorf("write srt: %w", err)
	}

	log.Infof("[subtitles] ✅ SRT generated: %s (%d segments)", srtFile, len(segments))
	return &types.Subtitles{SRTPath: srtFile, Segments: segments}, nil
}

func transcribe(ctx context.Context, model *genai.GenerativeModel, audio []byte) ([]types.SubtitleSegment, error) {
	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: "audio/wav", Data: audio},
		genai.Text(transcribePrompt),
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("transcription returned no candidates")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			raw.WriteString(string(text))
		}
	}

	var segments []types.SubtitleSegment
	if err := json.Unmarshal([]byte(raw.String()), &segments); err != nil {
		return nil, fmt.Errorf("parse segments: %w", err)
	}
	return segments, nil
}

// isOverloaded classifies rate-limit and unavailable errors, the only
// transient class worth retrying here.
func isOverloaded(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 429, 500, 503:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "overloaded") || strings.Contains(msg, "unavailable")
}

// FormatSRT renders timed segments in SubRip format.
func FormatSRT(segments []types.SubtitleSegment) string {
	var sb strings.Builder
	for i, seg := range segments {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", srtTimestamp(seg.Start), srtTimestamp(seg.End)))
		sb.WriteString(strings.TrimSpace(seg.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func srtTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	d := time.Duration(sec * float64(time.Second))
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
