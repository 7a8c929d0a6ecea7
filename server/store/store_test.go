package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Gifts: []Gift{
			{ID: "gift_1", X: 100, Y: 200, Rarity: 2, SpawnedAt: 1700000000000},
			{ID: "gift_7", X: 1500.5, Y: 10, Rarity: 0, SpawnedAt: 1700000000500},
		},
		Teams: []Team{
			{ID: "red", Name: "Red Elves", Color: "#ff4444", Score: 120, Wins: 2, Spawn: &Point{X: 200, Y: 1000}, Tree: &Point{X: 150, Y: 1000}},
			{ID: "a1b2c3d4", Name: "Night Owls", Color: "#a29bfe", Score: 35, Creator: "p1"},
		},
		GiftSeq: 7,
	}
}

func TestMemory_LoadMissing(t *testing.T) {
	m := NewMemory()
	_, err := m.Load(context.Background(), "main")
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Load err = %v, want ErrNoSnapshot", err)
	}
}

func TestMemory_SaveIsolatesCaller(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	snap := sampleSnapshot()
	if err := m.Save(ctx, "main", snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	snap.Gifts[0].X = -1
	snap.Teams[0].Spawn.X = -1

	got, err := m.Load(ctx, "main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Gifts[0].X != 100 {
		t.Errorf("Gifts[0].X = %v, want 100", got.Gifts[0].X)
	}
	if got.Teams[0].Spawn.X != 200 {
		t.Errorf("Teams[0].Spawn.X = %v, want 200", got.Teams[0].Spawn.X)
	}
	if got.GiftSeq != 7 {
		t.Errorf("GiftSeq = %d, want 7", got.GiftSeq)
	}
}

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	if _, err := f.Load(ctx, "main"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Load before save err = %v, want ErrNoSnapshot", err)
	}

	want := sampleSnapshot()
	if err := f.Save(ctx, "main", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := f.Load(ctx, "main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Gifts) != 2 || got.Gifts[1].ID != "gift_7" || got.Gifts[1].X != 1500.5 {
		t.Errorf("Gifts = %+v, want %+v", got.Gifts, want.Gifts)
	}
	if len(got.Teams) != 2 || got.Teams[0].Wins != 2 || got.Teams[0].Tree == nil || got.Teams[0].Tree.X != 150 {
		t.Errorf("Teams = %+v, want %+v", got.Teams, want.Teams)
	}
	if got.Teams[1].Spawn != nil {
		t.Errorf("Teams[1].Spawn = %+v, want nil", got.Teams[1].Spawn)
	}
	if got.GiftSeq != 7 {
		t.Errorf("GiftSeq = %d, want 7", got.GiftSeq)
	}
}

func TestFile_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	for i := range 3 {
		snap := sampleSnapshot()
		snap.GiftSeq = uint64(i)
		if err := f.Save(context.Background(), "main", snap); err != nil {
			t.Fatalf("Save #%d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	want := filepath.Base(f.path("main"))
	if len(entries) != 1 || entries[0].Name() != want {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("dir entries = %v, want [%s]", names, want)
	}
}

func TestFile_RoomNameIsSanitized(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := f.Save(context.Background(), "../escape", sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "___escape-") {
		t.Fatalf("dir entries = %v, want one ___escape-* file", entries)
	}
}

func TestFile_SanitizedNamesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	dotted, underscored := sampleSnapshot(), sampleSnapshot()
	dotted.GiftSeq, underscored.GiftSeq = 11, 22
	if err := f.Save(ctx, "a.b", dotted); err != nil {
		t.Fatalf("Save(a.b): %v", err)
	}
	if err := f.Save(ctx, "a_b", underscored); err != nil {
		t.Fatalf("Save(a_b): %v", err)
	}

	for room, want := range map[string]uint64{"a.b": 11, "a_b": 22} {
		got, err := f.Load(ctx, room)
		if err != nil {
			t.Fatalf("Load(%s): %v", room, err)
		}
		if got.GiftSeq != want {
			t.Errorf("Load(%s).GiftSeq = %d, want %d", room, got.GiftSeq, want)
		}
	}
}

func TestFile_CorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := os.WriteFile(f.path("main"), []byte{0xc1, 0x00}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err = f.Load(context.Background(), "main")
	if err == nil || errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Load err = %v, want decode error", err)
	}
}
