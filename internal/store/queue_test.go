package store

import (
	"testing"

	"github.com/jdelattre/localwave/internal/media"
)

// assertContiguous verifies the positions invariant: a contiguous 0..n-1
// sequence with no gaps or duplicates.
func assertContiguous(t *testing.T, s *Store) {
	t.Helper()
	positions, err := s.QueuePositions()
	if err != nil {
		t.Fatalf("QueuePositions failed: %v", err)
	}
	for i, p := range positions {
		if p != i {
			t.Fatalf("positions = %v, want contiguous 0..%d", positions, len(positions)-1)
		}
	}
}

func assertQueueIDs(t *testing.T, s *Store, want []int64) {
	t.Helper()
	ids, err := s.QueueTrackIDs()
	if err != nil {
		t.Fatalf("QueueTrackIDs failed: %v", err)
	}
	if len(ids) != len(want) {
		t.Fatalf("queue = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("queue = %v, want %v", ids, want)
		}
	}
	assertContiguous(t, s)
}

func TestReplaceQueue(t *testing.T) {
	s := setupTestStore(t)
	seedLibrary(t, s, 3)

	if err := s.ReplaceQueue([]int64{3, 1, 2}); err != nil {
		t.Fatalf("ReplaceQueue failed: %v", err)
	}
	assertQueueIDs(t, s, []int64{3, 1, 2})

	// Replacing again fully overwrites.
	if err := s.ReplaceQueue([]int64{2}); err != nil {
		t.Fatalf("ReplaceQueue failed: %v", err)
	}
	assertQueueIDs(t, s, []int64{2})
}

func TestReplaceQueue_EmptyClearsTable(t *testing.T) {
	s := setupTestStore(t)
	seedLibrary(t, s, 2)

	if err := s.ReplaceQueue([]int64{1, 2}); err != nil {
		t.Fatalf("ReplaceQueue failed: %v", err)
	}
	if err := s.ReplaceQueue(nil); err != nil {
		t.Fatalf("ReplaceQueue(nil) failed: %v", err)
	}
	assertQueueIDs(t, s, nil)
}

// Positions must stay contiguous through any sequence of whole-queue
// rewrites, including shrinking, growing and duplicated track ids.
func TestQueuePositions_ContiguousAfterRewriteSequence(t *testing.T) {
	s := setupTestStore(t)
	seedLibrary(t, s, 5)

	sequences := [][]int64{
		{1, 2, 3},
		{1, 2, 3, 4},
		{1, 5, 2, 3, 4},
		{5, 2, 3, 4},
		{3, 5, 2, 4},
		{3, 5, 2, 1, 4},
		{3, 5, 2, 1},
		{5, 2, 1, 3},
		{5, 2, 2, 5}, // the same track may be queued more than once
	}
	for i, ids := range sequences {
		if err := s.ReplaceQueue(ids); err != nil {
			t.Fatalf("rewrite %d failed: %v", i, err)
		}
		assertQueueIDs(t, s, ids)
	}
}

// A rescan that prunes a queued track cascades its row away; the rewrite
// inside ReplaceLibrary must close the resulting position gap.
func TestReplaceLibrary_RenumbersQueueAfterPrune(t *testing.T) {
	s := setupTestStore(t)
	seedLibrary(t, s, 3)

	if err := s.ReplaceQueue([]int64{1, 2, 3}); err != nil {
		t.Fatalf("ReplaceQueue failed: %v", err)
	}

	// Track 2's file disappeared before the rescan.
	tracks := []media.Track{testTrack(1), testTrack(3)}
	albums := []media.Album{{ID: 1, Title: "Album", Artist: "Artist", ArtistID: 1, TrackCount: 2}}
	artists := []media.Artist{{ID: 1, Name: "Artist", TrackCount: 2, AlbumCount: 1}}
	if err := s.ReplaceLibrary(tracks, albums, artists); err != nil {
		t.Fatalf("ReplaceLibrary failed: %v", err)
	}

	assertQueueIDs(t, s, []int64{1, 3})
}

func TestQueueTracks_ResolvesInOrder(t *testing.T) {
	s := setupTestStore(t)
	seedLibrary(t, s, 3)

	if err := s.ReplaceQueue([]int64{2, 3, 1}); err != nil {
		t.Fatalf("ReplaceQueue failed: %v", err)
	}

	tracks, err := s.QueueTracks()
	if err != nil {
		t.Fatalf("QueueTracks failed: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("len(tracks) = %d, want 3", len(tracks))
	}
	for i, want := range []int64{2, 3, 1} {
		if tracks[i].ID != want {
			t.Errorf("tracks[%d].ID = %d, want %d", i, tracks[i].ID, want)
		}
	}
}
