package manifest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/snonux/worldly/internal/audio"
)

func TestRecordAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio", FileName)
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	artifacts := []audio.Artifact{
		{Key: audio.Key("Starhaven"), Text: "Starhaven", File: audio.FileName("Starhaven", "MP3"),
			Provider: "google", Voice: "en-GB-Chirp-HD-O", Size: 2048, CreatedAt: base.Add(time.Second)},
		{Key: audio.Key("Aurelia"), Text: "Aurelia", File: audio.FileName("Aurelia", "MP3"),
			Provider: "google", Voice: "en-GB-Chirp-HD-O", Size: 1024, CreatedAt: base},
	}
	for _, a := range artifacts {
		if err := m.Record(ctx, a); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	entries, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	if entries[0].Text != "Aurelia" || entries[1].Text != "Starhaven" {
		t.Errorf("List() order = %s, %s", entries[0].Text, entries[1].Text)
	}
	if entries[0].Size != 1024 || !entries[0].CreatedAt.Equal(base) || entries[0].Voice != "en-GB-Chirp-HD-O" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
}

func TestRecordReplacesSameFile(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	ctx := context.Background()
	a := audio.Artifact{Key: "k", Text: "Aurelia", File: "k.mp3", Provider: "google", Size: 1, CreatedAt: time.Now()}
	if err := m.Record(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.Size = 2
	if err := m.Record(ctx, a); err != nil {
		t.Fatal(err)
	}

	entries, err := m.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Size != 2 {
		t.Errorf("entries = %+v, want one entry of size 2", entries)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	m, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Record(context.Background(), audio.Artifact{Key: "k", Text: "t", File: "k.mp3", Provider: "openai", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	m.Close()

	m, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer m.Close()
	entries, err := m.List(context.Background())
	if err != nil || len(entries) != 1 {
		t.Errorf("List() after reopen = %v, %v", entries, err)
	}
}
