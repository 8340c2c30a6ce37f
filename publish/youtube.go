package publish

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"reel-pipeline/config"
	"reel-pipeline/types"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeUploader uploads via the Data API v3 with a refresh-token
// OAuth client. YouTube takes the binary directly, so no staging URL
// is needed.
type YouTubeUploader struct {
	cfg config.YouTubeConfig
}

// NewYouTube creates a YouTube uploader.
func NewYouTube(cfg config.YouTubeConfig) *YouTubeUploader {
	return &YouTubeUploader{cfg: cfg}
}

func (u *YouTubeUploader) Platform() types.Platform { return types.PlatformYouTube }
func (u *YouTubeUploader) NeedsPublicURL() bool     { return false }

// Upload performs a resumable insert and returns the watch URL.
func (u *YouTubeUploader) Upload(ctx context.Context, req Request) (string, error) {
	log.Info("[publish] Authenticating with YouTube API...")

	client, err := oauthTransport(ctx)
	if err != nil {
		return "", fmt.Errorf("youtube auth: %w", err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("youtube service: %w", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Caption,
			CategoryId:  u.cfg.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           u.cfg.Visibility,
			SelfDeclaredMadeForKids: false,
		},
	}

	f, err := os.Open(req.VideoPath)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Infof("[publish] YouTube upload: %q (%.1f MB)", req.Title, float64(fi.Size())/1024/1024)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}

	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id), nil
}

// oauthTransport builds an OAuth2 HTTP client from env credentials,
// forcing an initial token refresh.
func oauthTransport(ctx context.Context) (*http.Client, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")

	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}

	return &http.Client{Transport: &oauth2.Transport{Source: conf.TokenSource(ctx, token)}}, nil
}
