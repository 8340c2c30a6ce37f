// Package notify sends the operator summary email at the end of a
// run. Notification is fire-and-forget: a failed send is logged and
// never masks the run's primary outcome.
package notify

import (
	"fmt"
	"os"
	"strings"

	"reel-pipeline/config"
	"reel-pipeline/types"

	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Notifier sends run summaries over SMTP.
type Notifier struct {
	cfg config.NotifyConfig
}

// New creates a Notifier.
func New(cfg config.NotifyConfig) *Notifier {
	return &Notifier{cfg: cfg}
}

// Success reports a completed run with its per-platform results.
func (n *Notifier) Success(task *types.Task, results map[types.Platform]types.PublishResult, stagingLocation string) {
	subject := fmt.Sprintf("✅ Content published: %s", task.Topic)
	n.send(subject, SuccessBody(task, results, stagingLocation))
}

// Failure reports a failed run with the step it died in.
func (n *Notifier) Failure(task *types.Task, step string, runErr error) {
	topic := "unknown task"
	if task != nil {
		topic = task.Topic
	}
	subject := fmt.Sprintf("❌ Content creation failed: %s", topic)
	n.send(subject, FailureBody(task, step, runErr))
}

func (n *Notifier) send(subject, body string) {
	if !n.cfg.Enabled {
		log.Debug("[notify] disabled in config, skipping")
		return
	}

	user := os.Getenv("EMAIL_USER")
	pass := os.Getenv("EMAIL_APP_PASSWORD")
	if user == "" || pass == "" {
		log.Warn("[notify] EMAIL_USER or EMAIL_APP_PASSWORD not set, skipping notification")
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", user)
	m.SetHeader("To", user) // operator mails themselves
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, user, pass)
	if err := d.DialAndSend(m); err != nil {
		log.Errorf("[notify] send failed: %v", err)
		return
	}
	log.Infof("[notify] ✅ Notification sent: %s", subject)
}

// SuccessBody renders the success summary, listing every platform with
// its link or failure reason.
func SuccessBody(task *types.Task, results map[types.Platform]types.PublishResult, stagingLocation string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Topic: %s (row %d)\n", task.Topic, task.RowID))
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", task.Description))
	}
	sb.WriteString("\nPublished links:\n")

	ok := 0
	for _, platform := range []types.Platform{types.PlatformYouTube, types.PlatformInstagram, types.PlatformFacebook} {
		r, present := results[platform]
		if !present {
			continue
		}
		if r.Success {
			ok++
			sb.WriteString(fmt.Sprintf("  %s: %s\n", platform, r.URL))
		} else {
			sb.WriteString(fmt.Sprintf("  %s: upload failed (%s)\n", platform, r.Error))
		}
	}
	sb.WriteString(fmt.Sprintf("\n%d/%d platforms succeeded.\n", ok, len(results)))

	if stagingLocation != "" {
		sb.WriteString(fmt.Sprintf("\nStaging artifact retained for manual retry: %s\n", stagingLocation))
	}
	return sb.String()
}

// FailureBody renders the failure report with the in-flight step and
// the full (untruncated) error.
func FailureBody(task *types.Task, step string, runErr error) string {
	var sb strings.Builder
	if task != nil {
		sb.WriteString(fmt.Sprintf("Topic: %s (row %d)\n", task.Topic, task.RowID))
	}
	sb.WriteString(fmt.Sprintf("Failed step: %s\n", step))
	if runErr != nil {
		sb.WriteString(fmt.Sprintf("\nError:\n%s\n", runErr.Error()))
	}
	sb.WriteString("\nNo automatic retry will run. Reset the row status to re-queue.\n")
	return sb.String()
}
