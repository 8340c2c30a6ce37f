package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"reel-pipeline/config"

	log "github.com/sirupsen/logrus"
)

const groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"

// Generator produces the short storyboard description consumed by the
// overlay compositor. A too-short or empty response is fatal: the
// render stage cannot proceed without a usable prompt.
type Generator struct {
	cfg        config.VisualConfig
	httpClient *http.Client
}

// New creates a visual prompt Generator.
func New(cfg config.VisualConfig) *Generator {
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Generate asks the model for a concise visual style description.
func (g *Generator) Generate(ctx context.Context, topic, scriptText string) (string, error) {
	log.Info("[visual] Generating visual animation prompt...")

	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GROQ_API_KEY not set")
	}

	prompt := buildPrompt(topic, scriptText)

	reqBody := map[string]interface{}{
		"model": g.cfg.GroqModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.7,
	}

	bodyBytes, _ := json.Marshal(reqBody)
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

	respBytes, _ := io.ReadAll(resp.Body)

	var groqResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &groqResp); err != nil {
		return "", fmt.Errorf("parse groq response: %w", err)
	}
	if groqResp.Error != nil {
		return "", fmt.Errorf("groq error: %s", groqResp.Error.Message)
	}
	if len(groqResp.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}

	visualPrompt := strings.TrimSpace(groqResp.Choices[0].Message.Content)
	if err := Validate(visualPrompt, g.cfg.MinChars); err != nil {
		return "", err
	}

	log.Infof("[visual] ✅ Visual prompt ready (%d chars)", len(visualPrompt))
	return visualPrompt, nil
}

// Validate rejects empty or too-short prompts. The downstream
// compositor produces garbage from a bare prompt, so this aborts the
// run instead of falling back silently.
func Validate(prompt string, minChars int) error {
	if len(strings.TrimSpace(prompt)) < minChars {
		return fmt.Errorf("visual prompt too short (%d chars, need %d)", len(prompt), minChars)
	}
	return nil
}

func buildPrompt(topic, scriptText string) string {
	var sb strings.Builder
	sb.WriteString("Based on the following video script, describe a visual style and motion graphics concept in at most 4 lines.\n")
	sb.WriteString("Focus on colors, shapes and movement of the overlay graphics. Do NOT describe the speaker.\n\n")
	sb.WriteString(fmt.Sprintf("TOPIC: %s\n\nSCRIPT:\n%s\n\n", topic, scriptText))
	sb.WriteString("OUTPUT RULES:\n- Modern tech theme, minimal overlays, smooth transitions.\n- Max 4 lines, concise and descriptive.")
	return sb.String()
}
