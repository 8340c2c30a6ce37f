package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sheets    SheetsConfig    `yaml:"sheets"`
	Script    ScriptConfig    `yaml:"script"`
	Audio     AudioConfig     `yaml:"audio"`
	Subtitles SubtitlesConfig `yaml:"subtitles"`
	Visual    VisualConfig    `yaml:"visual"`
	LipSync   LipSyncConfig   `yaml:"lipsync"`
	Compose   ComposeConfig   `yaml:"compose"`
	Overlay   OverlayConfig   `yaml:"overlay"`
	Publish   PublishConfig   `yaml:"publish"`
	Staging   StagingConfig   `yaml:"staging"`
	Notify    NotifyConfig    `yaml:"notify"`
	Cache     CacheConfig     `yaml:"cache"`
	Paths     PathsConfig     `yaml:"paths"`
}

type SheetsConfig struct {
	SpreadsheetID  string `yaml:"spreadsheet_id"`
	SheetName      string `yaml:"sheet_name"`
	ClaimOnAcquire bool   `yaml:"claim_on_acquire"`
	Timezone       string `yaml:"timezone"`
}

type ScriptConfig struct {
	GroqModel      string  `yaml:"groq_model"`
	Temperature    float64 `yaml:"temperature"`
	TargetWordsMin int     `yaml:"target_words_min"`
	TargetWordsMax int     `yaml:"target_words_max"`
}

type AudioConfig struct {
	GeminiModel string `yaml:"gemini_model"`
	Voice       string `yaml:"voice"`
	SampleRate  int    `yaml:"sample_rate"`
}

type SubtitlesConfig struct {
	GeminiModel  string  `yaml:"gemini_model"`
	MaxAttempts  int     `yaml:"max_attempts"`
	Font         string  `yaml:"font"`
	FontSize     int     `yaml:"font_size"`
	StrokeWidth  float64 `yaml:"stroke_width"`
	MarginBottom int     `yaml:"margin_bottom"`
}

type VisualConfig struct {
	GroqModel string `yaml:"groq_model"`
	MinChars  int    `yaml:"min_chars"`
}

type LipSyncConfig struct {
	Python       string `yaml:"python"`
	InferenceDir string `yaml:"inference_dir"`
	Checkpoint   string `yaml:"checkpoint"`
	FaceVideo    string `yaml:"face_video"`
	ResizeFactor int    `yaml:"resize_factor"`
}

type ComposeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
	CRF    int `yaml:"crf"`
}

type OverlayConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ChromeBin  string `yaml:"chrome_bin"`
	FPS        int    `yaml:"fps"`
	WindowSize string `yaml:"window_size"`
}

type PublishConfig struct {
	YouTube   YouTubeConfig   `yaml:"youtube"`
	Instagram InstagramConfig `yaml:"instagram"`
	Facebook  FacebookConfig  `yaml:"facebook"`
}

type YouTubeConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CategoryID string `yaml:"category_id"`
	Visibility string `yaml:"visibility"`
}

type InstagramConfig struct {
	Enabled         bool `yaml:"enabled"`
	PublishRetries  int  `yaml:"publish_retries"`
	PublishDelaySec int  `yaml:"publish_delay_sec"`
	PollTimeoutSec  int  `yaml:"poll_timeout_sec"`
}

type FacebookConfig struct {
	Enabled bool `yaml:"enabled"`
}

type StagingConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	Secure       bool   `yaml:"secure"`
	URLExpiryHrs int    `yaml:"url_expiry_hours"`
}

type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
	Logs   string `yaml:"logs"`
}

// Load reads config.yaml and returns a Config struct.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = "Sheet1"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 24000
	}
	if c.Subtitles.MaxAttempts == 0 {
		c.Subtitles.MaxAttempts = 4
	}
	if c.Visual.MinChars == 0 {
		c.Visual.MinChars = 40
	}
	if c.Compose.Width == 0 {
		c.Compose.Width = 1080
	}
	if c.Compose.Height == 0 {
		c.Compose.Height = 1920
	}
	if c.Compose.FPS == 0 {
		c.Compose.FPS = 30
	}
	if c.Compose.CRF == 0 {
		c.Compose.CRF = 22
	}
	if c.Overlay.FPS == 0 {
		c.Overlay.FPS = 30
	}
	if c.Instagram().PublishRetries == 0 {
		c.Publish.Instagram.PublishRetries = 3
	}
	if c.Instagram().PublishDelaySec == 0 {
		c.Publish.Instagram.PublishDelaySec = 15
	}
	if c.Instagram().PollTimeoutSec == 0 {
		c.Publish.Instagram.PollTimeoutSec = 300
	}
	if c.Staging.URLExpiryHrs == 0 {
		c.Staging.URLExpiryHrs = 24
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = ".cache"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.Logs == "" {
		c.Paths.Logs = "logs"
	}
}

func (c *Config) validate() error {
	if c.Sheets.SpreadsheetID == "" && os.Getenv("GOOGLE_SHEET_ID") == "" {
		return fmt.Errorf("sheets.spreadsheet_id not set (and GOOGLE_SHEET_ID empty)")
	}
	return nil
}

// Instagram is a shorthand accessor used by the publish wiring.
func (c *Config) Instagram() InstagramConfig { return c.Publish.Instagram }

// SpreadsheetID resolves the sheet ID from config or environment.
func (c *Config) SpreadsheetID() string {
	if c.Sheets.SpreadsheetID != "" {
		return c.Sheets.SpreadsheetID
	}
	return os.Getenv("GOOGLE_SHEET_ID")
}
