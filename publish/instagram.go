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

const graphAPIBase = "https://graph.facebook.com/v23.0"

// InstagramUploader publishes reels through the Graph API's
// create-container / poll / publish flow. Instagram only ingests by
// fetchable URL, so it depends on the staging upload.
type InstagramUploader struct {
	cfg        config.InstagramConfig
	httpClient *http.Client
}

// NewInstagram creates an Instagram uploader.
func NewInstagram(cfg config.InstagramConfig) *InstagramUploader {
	return &InstagramUploader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (u *InstagramUploader) Platform() types.Platform { return types.PlatformInstagram }
func (u *InstagramUploader) NeedsPublicURL() bool     { return true }

// Upload creates a REELS container from the staging URL, waits for
// Instagram to finish processing it, then publishes with a small fixed
// retry budget. Persistent rate-limit signals surface as a failure.
func (u *InstagramUploader) Upload(ctx context.Context, req Request) (string, error) {
	token := os.Getenv("INSTAGRAM_ACCESS_TOKEN")
	accountID := os.Getenv("INSTAGRAM_ACCOUNT_ID")
	if token == "" || accountID == "" {
		return "", fmt.Errorf("INSTAGRAM_ACCESS_TOKEN or INSTAGRAM_ACCOUNT_ID not set")
	}
	if req.PublicURL == "" {
		return "", fmt.Errorf("no staging URL available for instagram upload")
	}

	log.Info("[publish] Instagram: creating reel container...")
	containerID, err := u.createContainer(ctx, accountID, token, req)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}

	if err := u.waitForProcessing(ctx, containerID, token); err != nil {
		return "", err
	}

	mediaID, err := u.publishWithRetry(ctx, accountID, containerID, token)
	if err != nil {
		return "", err
	}

	permalink, err := u.permalink(ctx, mediaID, token)
	if err != nil {
		log.Warnf("[publish] Instagram permalink lookup failed: %v — constructing URL", err)
		permalink = fmt.Sprintf("https://www.instagram.com/reel/%s/", mediaID)
	}
	return permalink, nil
}

func (u *InstagramUploader) createContainer(ctx context.Context, accountID, token string, req Request) (string, error) {
	params := url.Values{
		"media_type":   {"REELS"},
		"video_url":    {req.PublicURL},
		"caption":      {req.Caption},
		"access_token": {token},
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := u.post(ctx, fmt.Sprintf("%s/%s/media", graphAPIBase, accountID), params, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("no container id in response")
	}
	return resp.ID, nil
}

// waitForProcessing polls the container status until FINISHED or the
// configured timeout. ERROR from the API aborts immediately.
func (u *InstagramUploader) waitForProcessing(ctx context.Context, containerID, token string) error {
	deadline := time.Now().Add(time.Duration(u.cfg.PollTimeoutSec) * time.Second)
	for {
		var resp struct {
			StatusCode string `json:"status_code"`
		}
		statusURL := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s", graphAPIBase, containerID, token)
		if err := u.get(ctx, statusURL, &resp); err != nil {
			return fmt.Errorf("poll container: %w", err)
		}

		switch resp.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("container processing ended in %s", resp.StatusCode)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("container still %s after %ds", resp.StatusCode, u.cfg.PollTimeoutSec)
		}
		log.Debugf("[publish] Instagram container %s: %s", containerID, resp.StatusCode)
		select {
		case <-time.After(10 * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (u *InstagramUploader) publishWithRetry(ctx context.Context, accountID, containerID, token string) (string, error) {
	params := url.Values{
		"creation_id":  {containerID},
		"access_token": {token},
	}

	var lastErr error
	for attempt := 1; attempt <= u.cfg.PublishRetries; attempt++ {
		var resp struct {
			ID string `json:"id"`
		}
		err := u.post(ctx, fmt.Sprintf("%s/%s/media_publish", graphAPIBase, accountID), params, &resp)
		if err == nil && resp.ID != "" {
			log.Infof("[publish] ✅ Instagram reel published: %s", resp.ID)
			return resp.ID, nil
		}
		if err == nil {
			err = fmt.Errorf("publish returned no media id")
		}
		lastErr = err
		log.Warnf("[publish] Instagram publish attempt %d/%d failed: %v", attempt, u.cfg.PublishRetries, err)
		if attempt < u.cfg.PublishRetries {
			select {
			case <-time.After(time.Duration(u.cfg.PublishDelaySec) * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("publish failed after %d attempts: %w", u.cfg.PublishRetries, lastErr)
}

func (u *InstagramUploader) permalink(ctx context.Context, mediaID, token string) (string, error) {
	var resp struct {
		Permalink string `json:"permalink"`
	}
	permalinkURL := fmt.Sprintf("%s/%s?fields=permalink&access_token=%s", graphAPIBase, mediaID, token)
	if err := u.get(ctx, permalinkURL, &resp); err != nil {
		return "", err
	}
	if resp.Permalink == "" {
		return "", fmt.Errorf("no permalink in response")
	}
	return resp.Permalink, nil
}

func (u *InstagramUploader) post(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return u.do(req, out)
}

func (u *InstagramUploader) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}
	return u.do(req, out)
}

func (u *InstagramUploader) do(req *http.Request, out interface{}) error {
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return graphError(resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}

// graphError extracts the Graph API error message when present.
func graphError(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		return fmt.Errorf("graph api %d (code %d): %s", status, envelope.Error.Code, envelope.Error.Message)
	}
	return fmt.Errorf("graph api http %d", status)
}
