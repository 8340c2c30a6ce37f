package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"reel-pipeline/config"
	"reel-pipeline/types"

	log "github.com/sirupsen/logrus"
)

// FacebookUploader publishes page videos through the Graph API.
// Facebook ingests by fetchable URL (file_url), so it also depends on
// the staging upload.
type FacebookUploader struct {
	cfg        config.FacebookConfig
	httpClient *http.Client
}

// NewFacebook creates a Facebook uploader.
func NewFacebook(cfg config.FacebookConfig) *FacebookUploader {
	return &FacebookUploader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (u *FacebookUploader) Platform() types.Platform { return types.PlatformFacebook }
func (u *FacebookUploader) NeedsPublicURL() bool     { return true }

// Upload posts the staged video to the configured page and returns
// the canonical video URL constructed from the returned id.
func (u *FacebookUploader) Upload(ctx context.Context, req Request) (string, error) {
	token := os.Getenv("FACEBOOK_PAGE_ACCESS_TOKEN")
	pageID := os.Getenv("FACEBOOK_PAGE_ID")
	if token == "" || pageID == "" {
		return "", fmt.Errorf("FACEBOOK_PAGE_ACCESS_TOKEN or FACEBOOK_PAGE_ID not set")
	}
	if req.PublicURL == "" {
		return "", fmt.Errorf("no staging URL available for facebook upload")
	}

	log.Info("[publish] Facebook: posting page video...")

	params := url.Values{
		"file_url":     {req.PublicURL},
		"title":        {req.Title},
		"description":  {req.Caption},
		"access_token": {token},
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/%s/videos", graphAPIBase, pageID),
		strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("facebook upload: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", graphError(resp.StatusCode, body)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse facebook response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no video id in facebook response")
	}

	log.Infof("[publish] ✅ Facebook video posted: %s", result.ID)
	return fmt.Sprintf("https://www.facebook.com/%s/videos/%s", pageID, result.ID), nil
}
