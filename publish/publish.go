package publish

import (
	"context"
	"sync"

	"reel-pipeline/types"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Request carries everything an uploader needs for one video.
type Request struct {
	VideoPath string
	PublicURL string // staging URL, populated for URL-based platforms
	Title     string
	Caption   string
}

// Uploader is one destination platform.
type Uploader interface {
	Platform() types.Platform
	// NeedsPublicURL reports whether the platform ingests by fetchable
	// URL instead of direct binary upload.
	NeedsPublicURL() bool
	// Upload publishes the video and returns its canonical URL.
	Upload(ctx context.Context, req Request) (string, error)
}

// Publisher fans a finished video out to every configured platform.
// Platforms race each other; one platform's failure never prevents the
// others from attempting.
type Publisher struct {
	uploaders []Uploader
	staging   *Staging
}

// New creates a Publisher. staging may be nil when no configured
// platform needs a public URL.
func New(staging *Staging, uploaders ...Uploader) *Publisher {
	return &Publisher{uploaders: uploaders, staging: staging}
}

// Report is the outcome of one fan-out.
type Report struct {
	Results map[types.Platform]types.PublishResult
	// StagingLocation is set when the staging artifact was retained
	// after a partial failure, for manual retry.
	StagingLocation string
}

// All uploads to every platform concurrently and aggregates per-platform
// results. The staging artifact is cleaned up iff every platform
// succeeded; otherwise it is retained and surfaced in the report.
func (p *Publisher) All(ctx context.Context, videoPath, title, caption string) *Report {
	log.Infof("[publish] Fanning out to %d platform(s)...", len(p.uploaders))

	req := Request{VideoPath: videoPath, Title: title, Caption: caption}

	needsURL := false
	for _, u := range p.uploaders {
		if u.NeedsPublicURL() {
			needsURL = true
			break
		}
	}

	var stagingObject string
	if needsURL && p.staging != nil {
		url, object, err := p.staging.Upload(ctx, videoPath)
		if err != nil {
			log.Errorf("[publish] staging upload failed, URL-based platforms will fail: %v", err)
		} else {
			req.PublicURL = url
			stagingObject = object
		}
	}

	results := make(map[types.Platform]types.PublishResult, len(p.uploaders))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range p.uploaders {
		g.Go(func() error {
			res := upload(gctx, u, req)
			mu.Lock()
			results[u.Platform()] = res
			mu.Unlock()
			return nil // platform failures are isolated, never group-fatal
		})
	}
	_ = g.Wait()

	report := &Report{Results: results}

	if stagingObject != "" {
		if ShouldCleanStaging(results) {
			if err := p.staging.Remove(ctx, stagingObject); err != nil {
				log.Warnf("[publish] staging cleanup failed: %v", err)
			}
		} else {
			report.StagingLocation = p.staging.Location(stagingObject)
			log.Warnf("[publish] keeping staging artifact for manual retry: %s", report.StagingLocation)
		}
	}

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	log.Infof("[publish] ✅ Fan-out complete: %d/%d platforms succeeded", ok, len(p.uploaders))
	return report
}

func upload(ctx context.Context, u Uploader, req Request) types.PublishResult {
	url, err := u.Upload(ctx, req)
	if err != nil {
		log.Errorf("[publish] %s upload failed: %v", u.Platform(), err)
		return types.PublishResult{Platform: u.Platform(), Success: false, Error: err.Error()}
	}
	log.Infof("[publish] %s: %s", u.Platform(), url)
	return types.PublishResult{Platform: u.Platform(), Success: true, URL: url}
}

// Aggregate reduces per-platform results to the run-level outcome.
func Aggregate(results map[types.Platform]types.PublishResult) types.Outcome {
	total, ok := 0, 0
	for _, r := range results {
		total++
		if r.Success {
			ok++
		}
	}
	switch {
	case total == 0 || ok == 0:
		return types.OutcomeAllFailed
	case ok == total:
		return types.OutcomeSuccess
	default:
		return types.OutcomePartialSuccess
	}
}

// ShouldCleanStaging is the single cleanup policy: delete the staging
// artifact iff every platform succeeded, otherwise keep it so a failed
// platform can be retried by hand.
func ShouldCleanStaging(results map[types.Platform]types.PublishResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

// Links extracts the per-platform URLs for the sheet write-back.
// Failed platforms stay empty rather than carrying error placeholders.
func Links(results map[types.Platform]types.PublishResult) types.Links {
	var links types.Links
	for platform, r := range results {
		if !r.Success {
			continue
		}
		switch platform {
		case types.PlatformYouTube:
			links.YouTube = r.URL
		case types.PlatformInstagram:
			links.Instagram = r.URL
		case types.PlatformFacebook:
			links.Facebook = r.URL
		}
	}
	return links
}
