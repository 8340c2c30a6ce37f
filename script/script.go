package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"reel-pipeline/config"
	"reel-pipeline/types"

	log "github.com/sirupsen/logrus"
)

const groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"

const systemPrompt = `You are a confident young tech educator writing 60-second short-form video scripts for students and beginners.

Your scripts MUST follow this structure:
1. Strong hook in the first 3 seconds (curiosity or a bold statement).
2. Call out a common mistake or myth about the topic.
3. Explain the concept in very simple words. No jargon.
4. Give 2-3 practical points or examples.
5. End with a powerful takeaway line.

You MUST respond with ONLY valid JSON — no preamble, no markdown, no explanation.

The JSON must have exactly these fields:
- "full_text": the complete narration as one string
- "segments": array of objects, each with:
  - "text": one short spoken sentence (these become subtitle lines)
  - "tone": one of "calm" | "excited" | "serious" | "curious"

Sentences must be short and punchy. Tone: calm, no overacting.`

// Generator writes scripts via the Groq chat completions API. Calls
// rotate through a pool of interchangeable keys: an auth or quota
// failure advances to the next key, any other failure propagates.
type Generator struct {
	cfg        config.ScriptConfig
	httpClient *http.Client
	keys       []string
}

// New creates a script Generator. Keys come from GROQ_API_KEYS
// (comma-separated) or GROQ_API_KEY.
func New(cfg config.ScriptConfig) *Generator {
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		keys:       keyPool(),
	}
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type scriptJSON struct {
	FullText string          `json:"full_text"`
	Segments []types.Segment `json:"segments"`
}

// Generate produces a structured script for a topic.
func (g *Generator) Generate(ctx context.Context, topic, description string) (*types.Script, error) {
	log.Infof("[script] Generating script for %q via Groq...", topic)

	if len(g.keys) == 0 {
		return nil, fmt.Errorf("no Groq API key set (GROQ_API_KEY or GROQ_API_KEYS)")
	}

	userPrompt := buildUserPrompt(topic, description, g.cfg.TargetWordsMin, g.cfg.TargetWordsMax)

	var lastErr error
	for i, key := range g.keys {
		content, err := g.complete(ctx, key, userPrompt)
		if err == nil {
			return parseScript(topic, content)
		}
		if !isAuthOrQuota(err) {
			return nil, err
		}
		lastErr = err
		log.Warnf("[script] key %d/%d rejected (%v) — trying next", i+1, len(g.keys), err)
	}
	return nil, fmt.Errorf("all %d Groq keys exhausted: %w", len(g.keys), lastErr)
}

func (g *Generator) complete(ctx context.Context, apiKey, userPrompt string) (string, error) {
	reqBody := groqRequest{
		Model: g.cfg.GroqModel,
		Messages: []groqMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   2048,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", groqEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden ||
		resp.StatusCode == http.StatusTooManyRequests {
		return "", &apiError{status: resp.StatusCode, msg: strings.TrimSpace(string(respBytes))}
	}

	var groqResp groqResponse
	if err := json.Unmarshal(respBytes, &groqResp); err != nil {
		return "", fmt.Errorf("parse groq response: %w", err)
	}
	if groqResp.Error != nil {
		return "", fmt.Errorf("groq error: %s", groqResp.Error.Message)
	}
	if len(groqResp.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}
	return groqResp.Choices[0].Message.Content, nil
}

func parseScript(topic, content string) (*types.Script, error) {
	content = cleanJSON(content)

	var raw scriptJSON
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parse script JSON: %w\nraw content: %s", err, truncate(content, 200))
	}
	if raw.FullText == "" && len(raw.Segments) == 0 {
		return nil, fmt.Errorf("script response had no usable content")
	}
	if raw.FullText == "" {
		var parts []string
		for _, seg := range raw.Segments {
			parts = append(parts, seg.Text)
		}
		raw.FullText = strings.Join(parts, " ")
	}

	script := &types.Script{Topic: topic, FullText: raw.FullText, Segments: raw.Segments}
	words := len(strings.Fields(script.FullText))
	log.Infof("[script] ✅ Script ready: %d segments, %d words", len(script.Segments), words)
	return script, nil
}

func buildUserPrompt(topic, description string, minWords, maxWords int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Write a short-form video script about: %s\n", topic))
	if description != "" {
		sb.WriteString(fmt.Sprintf("Context: %s\n", description))
	}
	sb.WriteString(fmt.Sprintf("\nTotal length: around %d-%d spoken words.\n", minWords, maxWords))
	sb.WriteString("Respond ONLY with valid JSON. No markdown. No explanation.")
	return sb.String()
}

// apiError carries the HTTP status so key rotation can classify it.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("groq http %d: %s", e.status, truncate(e.msg, 160))
}

// isAuthOrQuota reports whether an error should advance the key pool
// rather than abort the run.
func isAuthOrQuota(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		switch ae.status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return true
		}
	}
	return false
}

// keyPool returns the de-duplicated credential pool from the
// environment, preserving order.
func keyPool() []string {
	var raw []string
	if multi := os.Getenv("GROQ_API_KEYS"); multi != "" {
		raw = strings.Split(multi, ",")
	}
	if single := os.Getenv("GROQ_API_KEY"); single != "" {
		raw = append(raw, single)
	}

	seen := make(map[string]bool)
	var keys []string
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// cleanJSON strips markdown fences if the model wraps its response in
// ```json ... ```
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
