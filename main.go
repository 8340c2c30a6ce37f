package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"reel-pipeline/audio"
	"reel-pipeline/cache"
	"reel-pipeline/compose"
	"reel-pipeline/config"
	"reel-pipeline/lipsync"
	"reel-pipeline/notify"
	"reel-pipeline/overlay"
	"reel-pipeline/pipeline"
	"reel-pipeline/publish"
	"reel-pipeline/script"
	"reel-pipeline/sheets"
	"reel-pipeline/subtitles"
	"reel-pipeline/types"
	"reel-pipeline/visual"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// .env is for local dev; CI injects secrets directly
	_ = godotenv.Load()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		log.Fatalf("Failed to create run dir: %v", err)
	}

	log.Infof("🎬 Reel pipeline starting (run %s)", runID)
	log.Infof("📁 Output dir: %s", runDir)

	ctx := context.Background()

	source, err := openSource(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open task source: %v", err)
	}

	p := &pipeline.Pipeline{
		Source:    source,
		Script:    script.New(cfg.Script),
		Audio:     audio.New(cfg.Audio),
		Subtitles: subtitles.New(cfg.Subtitles),
		Visual:    visual.New(cfg.Visual),
		LipSync:   lipsync.New(cfg.LipSync),
		Composer:  compose.New(cfg.Compose, cfg.Subtitles),
		Publisher: buildPublisher(cfg),
		Notifier:  notify.New(cfg.Notify),
		RunID:     runID,
		RunDir:    runDir,
	}
	if cfg.Overlay.Enabled {
		p.Overlay = overlay.New(cfg.Overlay)
	}
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Dir)
		if err != nil {
			log.Warnf("Cache disabled: %v", err)
		} else {
			p.Script = pipeline.NewCachedScript(p.Script, store)
			p.Visual = pipeline.NewCachedVisual(p.Visual, store)
		}
	}

	if err := p.Run(ctx); err != nil {
		os.Exit(1)
	}
}

// openSource returns the sheet-backed task source, or an ad-hoc
// single-task source when a topic was passed on the command line.
func openSource(ctx context.Context, cfg *config.Config) (pipeline.TaskSource, error) {
	if len(os.Args) > 1 {
		topic := strings.Join(os.Args[1:], " ")
		log.Infof("📌 Ad-hoc topic from command line: %q", topic)
		return &adhocSource{topic: topic}, nil
	}

	backend, err := sheets.NewGoogleBackend(ctx, cfg.SpreadsheetID(), cfg.Sheets.SheetName)
	if err != nil {
		return nil, err
	}
	return sheets.Open(ctx, backend, cfg.Sheets)
}

func buildPublisher(cfg *config.Config) *publish.Publisher {
	var uploaders []publish.Uploader
	if cfg.Publish.YouTube.Enabled {
		uploaders = append(uploaders, publish.NewYouTube(cfg.Publish.YouTube))
	}
	if cfg.Publish.Instagram.Enabled {
		uploaders = append(uploaders, publish.NewInstagram(cfg.Publish.Instagram))
	}
	if cfg.Publish.Facebook.Enabled {
		uploaders = append(uploaders, publish.NewFacebook(cfg.Publish.Facebook))
	}

	var staging *publish.Staging
	for _, u := range uploaders {
		if u.NeedsPublicURL() {
			s, err := publish.NewStaging(cfg.Staging)
			if err != nil {
				log.Warnf("Staging unavailable, URL-based platforms will fail: %v", err)
			} else {
				staging = s
			}
			break
		}
	}
	return publish.New(staging, uploaders...)
}

// adhocSource serves a single command-line topic with no backing row.
type adhocSource struct {
	topic   string
	claimed bool
}

func (a *adhocSource) AcquireNext(ctx context.Context) (*types.Task, error) {
	if a.claimed {
		return nil, sheets.ErrNoTask
	}
	a.claimed = true
	return &types.Task{RowID: 0, Topic: a.topic}, nil
}

func (a *adhocSource) UpdateStatus(ctx context.Context, rowID int, status types.TaskStatus, links types.Links) error {
	log.Infof("[adhoc] final status: %s (links: %+v)", status, links)
	return nil
}
