package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := &Entry{Project: "a.yaml", Output: "a.mp4", Start: 0, End: 2, FPS: 25,
		Width: 1920, Height: 1080, Frames: 50, Audio: true, Bytes: 1 << 20,
		Elapsed: 3 * time.Second, CreatedAt: base}
	second := &Entry{Project: "b.yaml", Status: StatusFailed, Error: "encoder died",
		FPS: 25, Width: 1920, Height: 1080, Alpha: true, Warnings: 2,
		CreatedAt: base.Add(time.Minute)}

	for _, e := range []*Entry{first, second} {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if e.ID == "" {
			t.Fatal("Record did not assign an ID")
		}
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(entries))
	}
	if entries[0].ID != second.ID {
		t.Errorf("newest entry = %s, want %s", entries[0].Project, second.Project)
	}
	if entries[0].Status != StatusFailed || !entries[0].Alpha || entries[0].Warnings != 2 {
		t.Errorf("failed entry = %+v", entries[0])
	}
	got := entries[1]
	if got.Status != StatusDone || got.Frames != 50 || !got.Audio || got.Elapsed != 3*time.Second {
		t.Errorf("done entry = %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("List(1) returned %d entries", len(limited))
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") succeeded")
	}
}
