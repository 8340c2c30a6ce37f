package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reel-pipeline/publish"
	"reel-pipeline/sheets"
	"reel-pipeline/types"

	log "github.com/sirupsen/logrus"
)

// Step labels used for progress reporting and failure attribution.
// The current step is always set before a stage executes, so the
// catch-all sees the stage that was in flight, never the last one
// that succeeded.
const (
	StepAcquire      = "AcquireTask"
	StepScript       = "GenerateScript"
	StepAudio        = "GenerateAudio"
	StepLipSync      = "LipSync"
	StepSubtitles    = "GenerateSubtitles"
	StepVisualPrompt = "GenerateVisualPrompt"
	StepCompose      = "ComposeVideo"
	StepPublish      = "PublishAll"
	StepUpdate       = "UpdateTask"
	StepNotify       = "Notify"
)

// TaskSource claims work and records outcomes.
type TaskSource interface {
	AcquireNext(ctx context.Context) (*types.Task, error)
	UpdateStatus(ctx context.Context, rowID int, status types.TaskStatus, links types.Links) error
}

// ScriptGenerator produces the structured script for a topic.
type ScriptGenerator interface {
	Generate(ctx context.Context, topic, description string) (*types.Script, error)
}

// AudioGenerator synthesizes narration for a script.
type AudioGenerator interface {
	Generate(ctx context.Context, script *types.Script, outputDir string) (*types.AudioResult, error)
}

// SubtitleGenerator transcribes narration into timed captions.
type SubtitleGenerator interface {
	Generate(ctx context.Context, audioFile, outputDir string) (*types.Subtitles, error)
}

// VisualGenerator produces the storyboard prompt for the compositor.
type VisualGenerator interface {
	Generate(ctx context.Context, topic, scriptText string) (string, error)
}

// LipSyncer produces the talking-head base video.
type LipSyncer interface {
	Sync(ctx context.Context, audioPath, outputDir string) (string, error)
}

// Composer assembles the final video.
type Composer interface {
	Compose(ctx context.Context, baseVideo, audioPath string, overlays []types.OverlayAsset, srtPath, outputDir string) (string, error)
}

// OverlayRenderer rasterizes the animated HTML overlay, when enabled.
type OverlayRenderer interface {
	Render(ctx context.Context, htmlContent string, durationSec float64, outputDir string) (string, error)
}

// Publisher fans the finished video out to all platforms.
type Publisher interface {
	All(ctx context.Context, videoPath, title, caption string) *publish.Report
}

// Notifier reports the run outcome to the operator.
type Notifier interface {
	Success(task *types.Task, results map[types.Platform]types.PublishResult, stagingLocation string)
	Failure(task *types.Task, step string, runErr error)
}

// Pipeline sequences one full run: acquire a task, generate content,
// synthesize media, publish, write the outcome back, notify. Whatever
// happens, a claimed task gets exactly one terminal sheet update.
type Pipeline struct {
	Source    TaskSource
	Script    ScriptGenerator
	Audio     AudioGenerator
	Subtitles SubtitleGenerator
	Visual    VisualGenerator
	LipSync   LipSyncer
	Composer  Composer
	Overlay   OverlayRenderer // nil when overlay rendering is disabled
	Publisher Publisher
	Notifier  Notifier

	RunID  string
	RunDir string
}

// Run executes one pipeline run. It returns nil both for a completed
// run and for the no-work case; runs that failed mid-flight return the
// stage error after the error sink has updated the sheet and notified.
func (p *Pipeline) Run(ctx context.Context) error {
	state := &types.RunState{
		RunID:     p.RunID,
		Artifacts: make(map[string]string),
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		state.CompletedAt = time.Now().UTC()
		p.saveState(state)
	}()

	state.CurrentStep = StepAcquire
	task, err := p.Source.AcquireNext(ctx)
	if errors.Is(err, sheets.ErrNoTask) {
		// Empty queue is a normal outcome, not a failure: no stages
		// run and no failure notification goes out.
		log.Info("[pipeline] No eligible task, nothing to do")
		return nil
	}
	if err != nil {
		return p.fail(ctx, state, nil, fmt.Errorf("acquire task: %w", err))
	}
	state.Task = task
	log.Infof("[pipeline] 🎬 Run %s: row %d %q", p.RunID, task.RowID, task.Topic)

	report, err := p.produce(ctx, state, task)
	if err != nil {
		return p.fail(ctx, state, task, err)
	}

	state.CurrentStep = StepUpdate
	links := publish.Links(report.Results)
	if err := p.Source.UpdateStatus(ctx, task.RowID, types.StatusPosted, links); err != nil {
		// Bookkeeping failure must not mask a published video.
		log.Errorf("[pipeline] sheet update failed after publish: %v", err)
	}

	state.CurrentStep = StepNotify
	p.Notifier.Success(task, report.Results, report.StagingLocation)

	log.Infof("[pipeline] ✅ Run %s complete", p.RunID)
	return nil
}

// produce runs every content and media stage plus the publish fan-out.
func (p *Pipeline) produce(ctx context.Context, state *types.RunState, task *types.Task) (*publish.Report, error) {
	state.CurrentStep = StepScript
	script, err := p.Script.Generate(ctx, task.Topic, task.Description)
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}

	state.CurrentStep = StepAudio
	audio, err := p.Audio.Generate(ctx, script, p.RunDir)
	if err != nil {
		return nil, fmt.Errorf("generate audio: %w", err)
	}
	state.Artifacts["audio"] = audio.FilePath

	state.CurrentStep = StepLipSync
	baseVideo, err := p.LipSync.Sync(ctx, audio.FilePath, p.RunDir)
	if err != nil {
		return nil, fmt.Errorf("lip sync: %w", err)
	}
	state.Artifacts["lipsync"] = baseVideo

	state.CurrentStep = StepSubtitles
	subs, err := p.Subtitles.Generate(ctx, audio.FilePath, p.RunDir)
	if err != nil {
		return nil, fmt.Errorf("generate subtitles: %w", err)
	}
	state.Artifacts["subtitles"] = subs.SRTPath

	state.CurrentStep = StepVisualPrompt
	visualPrompt, err := p.Visual.Generate(ctx, task.Topic, script.FullText)
	if err != nil {
		return nil, fmt.Errorf("generate visual prompt: %w", err)
	}

	var overlays []types.OverlayAsset
	if p.Overlay != nil {
		state.CurrentStep = StepCompose
		overlayVideo, err := p.Overlay.Render(ctx, overlayHTML(task.Topic, visualPrompt), audio.DurationSec, p.RunDir)
		if err != nil {
			return nil, fmt.Errorf("render overlay: %w", err)
		}
		overlays = append(overlays, types.OverlayAsset{
			Path:      overlayVideo,
			StartTime: 0,
			EndTime:   audio.DurationSec,
		})
	}

	state.CurrentStep = StepCompose
	finalVideo, err := p.Composer.Compose(ctx, baseVideo, audio.FilePath, overlays, subs.SRTPath, p.RunDir)
	if err != nil {
		return nil, fmt.Errorf("compose video: %w", err)
	}
	state.Artifacts["video"] = finalVideo

	state.CurrentStep = StepPublish
	report := p.Publisher.All(ctx, finalVideo, task.Topic, caption(task.Topic, script))
	if publish.Aggregate(report.Results) == types.OutcomeAllFailed {
		// Best-effort fan-out still needs at least one platform to
		// land, otherwise the run failed.
		return nil, fmt.Errorf("all platforms failed: %s", summarizeFailures(report.Results))
	}
	return report, nil
}

// fail is the single error sink: it records the in-flight step, writes
// the terminal Error status for a claimed task, and always attempts
// the failure notification.
func (p *Pipeline) fail(ctx context.Context, state *types.RunState, task *types.Task, err error) error {
	state.Error = err.Error()
	log.Errorf("[pipeline] ❌ Run %s failed at %s: %v", p.RunID, state.CurrentStep, err)

	if task != nil {
		status := types.ErrorStatus(err.Error())
		if uerr := p.Source.UpdateStatus(ctx, task.RowID, status, types.Links{}); uerr != nil {
			log.Errorf("[pipeline] error-status write failed: %v", uerr)
		}
	}

	p.Notifier.Failure(task, state.CurrentStep, err)
	return err
}

func (p *Pipeline) saveState(state *types.RunState) {
	if p.RunDir == "" {
		return
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(p.RunDir, "pipeline_state.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warnf("[pipeline] could not save state: %v", err)
	}
}

// caption builds the social caption from the script hook.
func caption(topic string, script *types.Script) string {
	hook := script.FullText
	if len(script.Segments) > 0 {
		hook = script.Segments[0].Text
	}
	if len(hook) > 200 {
		hook = hook[:197] + "..."
	}
	return fmt.Sprintf("%s\n\n%s\n\n#shorts #learntocode #tech", hook, topic)
}

func summarizeFailures(results map[types.Platform]types.PublishResult) string {
	var parts []string
	for platform, r := range results {
		if !r.Success {
			parts = append(parts, fmt.Sprintf("%s: %s", platform, r.Error))
		}
	}
	return strings.Join(parts, "; ")
}

// overlayHTML produces the animated overlay page the headless browser
// renders. The visual prompt drives the styling block so regenerating
// the prompt changes the look without touching this template.
func overlayHTML(topic, visualPrompt string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  html, body { margin: 0; background: transparent; overflow: hidden; }
  .title {
    position: absolute; top: 8%%; width: 100%%; text-align: center;
    font-family: 'Segoe UI', sans-serif; font-weight: 800; font-size: 56px;
    color: #fff; text-shadow: 0 2px 12px rgba(0,0,0,.6);
    animation: slidein 1s ease-out;
  }
  @keyframes slidein { from { opacity: 0; transform: translateY(-40px); } to { opacity: 1; } }
</style>
</head>
<body>
<!-- style concept: %s -->
<div class="title">%s</div>
</body>
</html>`, visualPrompt, topic)
}
