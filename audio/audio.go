package audio

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reel-pipeline/config"
	"reel-pipeline/types"

	log "github.com/sirupsen/logrus"
)

// Generator turns a full script into one narration audio file via the
// Gemini TTS endpoint. The whole script goes in a single request; the
// response is headerless PCM that gets wrapped into a WAV container
// locally. There is no fallback voice: no audio payload is a hard
// failure.
type Generator struct {
	cfg        config.AudioConfig
	httpClient *http.Client
}

// New creates an audio Generator.
func New(cfg config.AudioConfig) *Generator {
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type ttsRequest struct {
	Contents         []ttsContent `json:"contents"`
	GenerationConfig ttsGenConfig `json:"generationConfig"`
}

type ttsContent struct {
	Parts []ttsPart `json:"parts"`
}

type ttsPart struct {
	Text string `json:"text"`
}

type ttsGenConfig struct {
	ResponseModalities []string        `json:"responseModalities"`
	SpeechConfig       ttsSpeechConfig `json:"speechConfig"`
}

type ttsSpeechConfig struct {
	VoiceConfig ttsVoiceConfig `json:"voiceConfig"`
}

type ttsVoiceConfig struct {
	PrebuiltVoiceConfig ttsPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type ttsPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type ttsResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate synthesizes narration for the script and returns the WAV
// path plus its measured duration.
func (g *Generator) Generate(ctx context.Context, script *types.Script, outputDir string) (*types.AudioResult, error) {
	log.Infof("[audio] Generating TTS narration (%d words)...", len(strings.Fields(script.FullText)))

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	pcm, err := g.synthesize(ctx, apiKey, script.FullText)
	if err != nil {
		return nil, err
	}

	outFile := filepath.Join(outputDir, "narration.wav")
	if err := writeWAV(outFile, pcm, g.cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}

	dur, err := probeDuration(outFile)
	if err != nil {
		log.Warnf("[audio] could not measure duration: %v — estimating from PCM size", err)
		dur = pcmDuration(len(pcm), g.cfg.SampleRate)
	}

	log.Infof("[audio] ✅ Narration ready: %s (%.1fs)", outFile, dur)
	return &types.AudioResult{FilePath: outFile, DurationSec: dur}, nil
}

func (g *Generator) synthesize(ctx context.Context, apiKey, text string) ([]byte, error) {
	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		g.cfg.GeminiModel, apiKey,
	)

	reqBody := ttsRequest{
		Contents: []ttsContent{{Parts: []ttsPart{{Text: text}}}},
		GenerationConfig: ttsGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: ttsSpeechConfig{
				VoiceConfig: ttsVoiceConfig{
					PrebuiltVoiceConfig: ttsPrebuiltVoice{VoiceName: g.cfg.Voice},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var ttsResp ttsResponse
	if err := json.Unmarshal(respBytes, &ttsResp); err != nil {
		return nil, fmt.Errorf("parse tts response: %w", err)
	}
	if ttsResp.Error != nil {
		return nil, fmt.Errorf("tts error: %s", ttsResp.Error.Message)
	}

	for _, cand := range ttsResp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode audio payload: %w", err)
			}
			return pcm, nil
		}
	}
	return nil, fmt.Errorf("tts returned no audio payload")
}

// writeWAV wraps raw s16le mono PCM in a RIFF/WAV header so ffmpeg
// and the lip-sync process can consume it directly.
func writeWAV(path string, pcm []byte, sampleRate int) error {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeLE32(&buf, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	writeLE32(&buf, 16)
	writeLE16(&buf, 1) // PCM
	writeLE16(&buf, numChannels)
	writeLE32(&buf, uint32(sampleRate))
	writeLE32(&buf, uint32(byteRate))
	writeLE16(&buf, uint16(blockAlign))
	writeLE16(&buf, bitsPerSample)
	buf.WriteString("data")
	writeLE32(&buf, uint32(len(pcm)))
	buf.Write(pcm)

	return os.WriteFile(path, buf.Bytes(), 0644)
}

func writeLE16(buf *bytes.Buffer, v uint16) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
}

func writeLE32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 24))
}

// pcmDuration estimates duration for s16le mono PCM.
func pcmDuration(byteLen, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(byteLen) / float64(sampleRate*2)
}

// probeDuration uses ffprobe to get accurate audio duration in seconds.
func probeDuration(audioFile string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioFile,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}
