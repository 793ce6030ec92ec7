package pipeline

import (
	"testing"
	"time"
)

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing document"},
		{StatusConverting, "converting blocks"},
		{StatusStoring, "storing article"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_SetStatusFailed(t *testing.T) {
	job := &Job{
		ID:        "test-fail",
		Status:    StatusConverting,
		UpdatedAt: time.Now(),
	}
	job.SetStatus(StatusFailed, "conversion error")
	if job.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Status)
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("parse: unexpected EOF")
	job.AddError("store: slug already in use")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "parse: unexpected EOF" {
		t.Errorf("expected first error %q, got %q", "parse: unexpected EOF", snap.Progress.Errors[0])
	}
}

func TestJob_SetConverted(t *testing.T) {
	job := &Job{ID: "conv-test", UpdatedAt: time.Now()}
	job.SetConverted(12, 4, 830, "abc")

	snap := job.Snapshot()
	if snap.Progress.Blocks != 12 || snap.Progress.Headings != 4 || snap.Progress.Words != 830 {
		t.Errorf("unexpected progress: %+v", snap.Progress)
	}
	if snap.ContentHash != "abc" {
		t.Errorf("expected hash %q, got %q", "abc", snap.ContentHash)
	}
}

func TestJob_SetArticle(t *testing.T) {
	job := &Job{ID: "art-test", UpdatedAt: time.Now()}
	job.SetArticle("a-1", "belajar-go", true)

	snap := job.Snapshot()
	if snap.ArticleID != "a-1" || snap.Slug != "belajar-go" || !snap.Progress.Updated {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("post.md", "upload", []byte("# Hi"), JobOptions{Publish: true})
	if job.ID == "" || job.Status != StatusQueued {
		t.Errorf("unexpected job: %+v", job.Snapshot())
	}
	if string(job.FileData()) != "# Hi" {
		t.Errorf("file data = %q", job.FileData())
	}
	job.releaseData()
	if job.FileData() != nil {
		t.Error("expected data released")
	}
}

func TestJobStatus_Done(t *testing.T) {
	for _, s := range []JobStatus{StatusCompleted, StatusFailed, StatusDupSkipped} {
		if !s.Done() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusQueued, StatusParsing, StatusConverting, StatusStoring} {
		if s.Done() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestJob_FileData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("file content here")
	job.SetFileData(data)
	got := job.FileData()
	if string(got) != string(data) {
		t.Errorf("expected file data %q, got %q", data, got)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	if n := store.Cleanup(); n != 1 {
		t.Errorf("removed %d jobs, want 1", n)
	}

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	if n := store.Cleanup(); n != 0 {
		t.Errorf("removed %d jobs from an empty store", n)
	}
}
