package notify

import (
	"fmt"
	"strings"
	"testing"

	"reel-pipeline/types"
)

func TestSuccessBodyPartial(t *testing.T) {
	task := &types.Task{RowID: 4, Topic: "Hash Maps", Description: "collision handling"}
	results := map[types.Platform]types.PublishResult{
		types.PlatformYouTube:   {Success: true, URL: "https://youtu.be/x"},
		types.PlatformInstagram: {Success: false, Error: "processing timed out"},
		types.PlatformFacebook:  {Success: false, Error: "bad token"},
	}

	body := SuccessBody(task, results, "s3://reel-staging/run1.mp4")

	if !strings.Contains(body, "Hash Maps (row 4)") {
		t.Errorf("missing task line:\n%s", body)
	}
	if !strings.Contains(body, "collision handling") {
		t.Errorf("missing description:\n%s", body)
	}
	if !strings.Contains(body, "youtube: https://youtu.be/x") {
		t.Errorf("missing youtube link:\n%s", body)
	}
	if !strings.Contains(body, "instagram: upload failed (processing timed out)") {
		t.Errorf("missing instagram failure reason:\n%s", body)
	}
	if !strings.Contains(body, "1/3 platforms succeeded") {
		t.Errorf("missing tally:\n%s", body)
	}
	if !strings.Contains(body, "s3://reel-staging/run1.mp4") {
		t.Errorf("missing staging retention note:\n%s", body)
	}
}

func TestSuccessBodyNoStagingNote(t *testing.T) {
	task := &types.Task{RowID: 2, Topic: "Queues"}
	results := map[types.Platform]types.PublishResult{
		types.PlatformYouTube: {Success: true, URL: "https://youtu.be/y"},
	}
	body := SuccessBody(task, results, "")
	if strings.Contains(body, "retained") {
		t.Errorf("unexpected staging note:\n%s", body)
	}
	if !strings.Contains(body, "1/1 platforms succeeded") {
		t.Errorf("missing tally:\n%s", body)
	}
}

func TestFailureBody(t *testing.T) {
	task := &types.Task{RowID: 7, Topic: "Graph Traversal"}
	body := FailureBody(task, "GenerateSubtitles", fmt.Errorf("transcription failed (attempt 4): backend overloaded"))

	if !strings.Contains(body, "Graph Traversal (row 7)") {
		t.Errorf("missing task line:\n%s", body)
	}
	if !strings.Contains(body, "Failed step: GenerateSubtitles") {
		t.Errorf("missing step:\n%s", body)
	}
	if !strings.Contains(body, "transcription failed (attempt 4): backend overloaded") {
		t.Errorf("error must not be truncated:\n%s", body)
	}
	if !strings.Contains(body, "re-queue") {
		t.Errorf("missing re-queue note:\n%s", body)
	}
}

func TestFailureBodyNilTask(t *testing.T) {
	body := FailureBody(nil, "AcquireTask", fmt.Errorf("sheets read: 503"))
	if strings.Contains(body, "row") {
		t.Errorf("nil task must not render a row line:\n%s", body)
	}
	if !strings.Contains(body, "Failed step: AcquireTask") {
		t.Errorf("missing step:\n%s", body)
	}
}
