package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"reel-pipeline/publish"
	"reel-pipeline/sheets"
	"reel-pipeline/types"
)

// fakeSource hands out one task and records every status write.
type fakeSource struct {
	task       *types.Task
	acquireErr error
	updates    []statusWrite
	updateErr  error
}

type statusWrite struct {
	rowID  int
	status types.TaskStatus
	links  types.Links
}

func (f *fakeSource) AcquireNext(ctx context.Context) (*types.Task, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	if f.task == nil {
		return nil, sheets.ErrNoTask
	}
	return f.task, nil
}

func (f *fakeSource) UpdateStatus(ctx context.Context, rowID int, status types.TaskStatus, links types.Links) error {
	f.updates = append(f.updates, statusWrite{rowID, status, links})
	return f.updateErr
}

type fakeScript struct{ err error }

func (f *fakeScript) Generate(ctx context.Context, topic, description string) (*types.Script, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Script{
		Topic:    topic,
		FullText: "Quick intro. Main point.",
		Segments: []types.Segment{{Text: "Quick intro.", Tone: "calm"}},
	}, nil
}

type fakeAudio struct{ err error }

func (f *fakeAudio) Generate(ctx context.Context, script *types.Script, outputDir string) (*types.AudioResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.AudioResult{FilePath: "audio.wav", DurationSec: 30}, nil
}

type fakeSubtitles struct{ err error }

func (f *fakeSubtitles) Generate(ctx context.Context, audioFile, outputDir string) (*types.Subtitles, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Subtitles{SRTPath: "subtitles.srt"}, nil
}

type fakeVisual struct{ err error }

func (f *fakeVisual) Generate(ctx context.Context, topic, scriptText string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "soft gradients, floating shapes, smooth upward motion", nil
}

type fakeLipSync struct{ err error }

func (f *fakeLipSync) Sync(ctx context.Context, audioPath, outputDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "lipsync.mp4", nil
}

type fakeComposer struct{ err error }

func (f *fakeComposer) Compose(ctx context.Context, baseVideo, audioPath string, overlays []types.OverlayAsset, srtPath, outputDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "final_video.mp4", nil
}

type fakePublisher struct{ results map[types.Platform]types.PublishResult }

func (f *fakePublisher) All(ctx context.Context, videoPath, title, caption string) *publish.Report {
	return &publish.Report{Results: f.results}
}

type notification struct {
	success bool
	task    *types.Task
	step    string
	err     error
	links   map[types.Platform]types.PublishResult
}

type fakeNotifier struct{ sent []notification }

func (f *fakeNotifier) Success(task *types.Task, results map[types.Platform]types.PublishResult, stagingLocation string) {
	f.sent = append(f.sent, notification{success: true, task: task, links: results})
}

func (f *fakeNotifier) Failure(task *types.Task, step string, runErr error) {
	f.sent = append(f.sent, notification{success: false, task: task, step: step, err: runErr})
}

func newTestPipeline(source *fakeSource, notifier *fakeNotifier) *Pipeline {
	return &Pipeline{
		Source:    source,
		Script:    &fakeScript{},
		Audio:     &fakeAudio{},
		Subtitles: &fakeSubtitles{},
		Visual:    &fakeVisual{},
		LipSync:   &fakeLipSync{},
		Composer:  &fakeComposer{},
		Publisher: &fakePublisher{results: map[types.Platform]types.PublishResult{
			types.PlatformYouTube: {Platform: types.PlatformYouTube, Success: true, URL: "https://youtu.be/ok"},
		}},
		Notifier: notifier,
		RunID:    "test",
	}
}

func TestRunNoTaskIsCleanExit(t *testing.T) {
	source := &fakeSource{} // empty queue
	notifier := &fakeNotifier{}
	p := newTestPipeline(source, notifier)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run with empty queue: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("empty queue must not notify, got %+v", notifier.sent)
	}
	if len(source.updates) != 0 {
		t.Errorf("empty queue must not write the sheet, got %+v", source.updates)
	}
}

func TestRunSuccessWritesPostedAndNotifies(t *testing.T) {
	source := &fakeSource{task: &types.Task{RowID: 3, Topic: "Stacks"}}
	notifier := &fakeNotifier{}
	p := newTestPipeline(source, notifier)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(source.updates) != 1 {
		t.Fatalf("got %d status writes, want exactly 1 terminal write", len(source.updates))
	}
	u := source.updates[0]
	if u.rowID != 3 || u.status != types.StatusPosted {
		t.Errorf("terminal write = %+v", u)
	}
	if u.links.YouTube != "https://youtu.be/ok" {
		t.Errorf("links = %+v", u.links)
	}

	if len(notifier.sent) != 1 || !notifier.sent[0].success {
		t.Fatalf("notifications = %+v, want one success", notifier.sent)
	}
}

func TestRunPartialSuccessPostsOnlySuccessfulLinks(t *testing.T) {
	source := &fakeSource{task: &types.Task{RowID: 5, Topic: "Recursion"}}
	notifier := &fakeNotifier{}
	p := newTestPipeline(source, notifier)
	p.Publisher = &fakePublisher{results: map[types.Platform]types.PublishResult{
		types.PlatformYouTube:   {Platform: types.PlatformYouTube, Success: true, URL: "https://youtu.be/r"},
		types.PlatformInstagram: {Platform: types.PlatformInstagram, Success: false, Error: "container expired"},
	}}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	u := source.updates[0]
	if u.status != types.StatusPosted {
		t.Errorf("status = %q, want Posted on partial success", u.status)
	}
	if u.links.YouTube == "" || u.links.Instagram != "" {
		t.Errorf("links = %+v, want only successful platforms", u.links)
	}
}

func TestRunAllPlatformsFailedIsRunFailure(t *testing.T) {
	source := &fakeSource{task: &types.Task{RowID: 2, Topic: "Big O"}}
	notifier := &fakeNotifier{}
	p := newTestPipeline(source, notifier)
	p.Publisher = &fakePublisher{results: map[types.Platform]types.PublishResult{
		types.PlatformYouTube:  {Success: false, Error: "quota exceeded"},
		types.PlatformFacebook: {Success: false, Error: "bad token"},
	}}

	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected run failure when every platform fails")
	}

	if len(source.updates) != 1 {
		t.Fatalf("got %d status writes, want 1", len(source.updates))
	}
	status := string(source.updates[0].status)
	if !strings.HasPrefix(status, "Error: ") {
		t.Errorf("status = %q, want Error status", status)
	}

	if len(notifier.sent) != 1 || notifier.sent[0].success {
		t.Fatalf("notifications = %+v, want one failure", notifier.sent)
	}
	if notifier.sent[0].step != StepPublish {
		t.Errorf("failed step = %q, want %q", notifier.sent[0].step, StepPublish)
	}
}

func TestRunFailureAttributedToInFlightStep(t *testing.T) {
	source := &fakeSource{task: &types.Task{RowID: 4, Topic: "Pointers"}}
	notifier := &fakeNotifier{}
	p := newTestPipeline(source, notifier)
	p.Subtitles = &fakeSubtitles{err: fmt.Errorf("backend overloaded")}

	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected run failure")
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("notifications = %+v", notifier.sent)
	}
	n := notifier.sent[0]
	if n.step != StepSubtitles {
		t.Errorf("failed step = %q, want %q", n.step, StepSubtitles)
	}
	if n.task == nil || n.task.RowID != 4 {
		t.Errorf("notification task = %+v", n.task)
	}

	if len(source.updates) != 1 {
		t.Fatalf("got %d status writes, want 1 Error write", len(source.updates))
	}
	if !strings.HasPrefix(string(source.updates[0].status), "Error: ") {
		t.Errorf("status = %q", source.updates[0].status)
	}
}

func TestRunAcquireFailureNotifiesWithoutTask(t *testing.T) {
	source := &fakeSource{acquireErr: errors.New("sheets read: 503")}
	notifier := &fakeNotifier{}
	p := newTestPipeline(source, notifier)

	if err := p.Run(context.Background()); err == nil {
		t.Fatal("expected acquire failure to propagate")
	}

	if len(source.updates) != 0 {
		t.Errorf("no task was claimed, sheet writes = %+v", source.updates)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("notifications = %+v", notifier.sent)
	}
	n := notifier.sent[0]
	if n.success || n.task != nil || n.step != StepAcquire {
		t.Errorf("notification = %+v, want failure at %s with nil task", n, StepAcquire)
	}
}

func TestRunSheetWriteFailureDoesNotMaskPublish(t *testing.T) {
	source := &fakeSource{
		task:      &types.Task{RowID: 6, Topic: "Closures"},
		updateErr: errors.New("sheets: quota"),
	}
	notifier := &fakeNotifier{}
	p := newTestPipeline(source, notifier)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("bookkeeping failure must not fail a published run: %v", err)
	}
	if len(notifier.sent) != 1 || !notifier.sent[0].success {
		t.Errorf("notifications = %+v, want one success", notifier.sent)
	}
}

func TestCaptionUsesHookSegment(t *testing.T) {
	script := &types.Script{
		FullText: "Full text here.",
		Segments: []types.Segment{{Text: "The hook line."}, {Text: "More detail."}},
	}
	c := caption("Slices", script)
	if !strings.HasPrefix(c, "The hook line.") {
		t.Errorf("caption = %q, want hook-first", c)
	}
	if !strings.Contains(c, "Slices") {
		t.Errorf("caption = %q, want topic included", c)
	}
}

func TestCaptionTruncatesLongHook(t *testing.T) {
	long := strings.Repeat("word ", 100)
	c := caption("Topic", &types.Script{FullText: long})
	firstLine := strings.SplitN(c, "\n", 2)[0]
	if len(firstLine) > 200 {
		t.Errorf("hook length = %d, want <= 200", len(firstLine))
	}
	if !strings.Contains(firstLine, "...") {
		t.Errorf("truncated hook should end with ellipsis: %q", firstLine)
	}
}
