package registry

import (
	"testing"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
)

func testItems(ids ...string) []domain.CandidateItem {
	items := make([]domain.CandidateItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.CandidateItem{ID: id})
	}
	return items
}

func TestRegistry_Initialize(t *testing.T) {
	reg := New()
	reg.Initialize(testItems("a", "b", "c"))

	if reg.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", reg.Len())
	}

	for _, id := range []string{"a", "b", "c"} {
		state, ok := reg.Get(id)
		if !ok {
			t.Fatalf("expected item %s to exist", id)
		}
		if state.Status != domain.StatusPending {
			t.Errorf("expected pending status for %s, got %s", id, state.Status)
		}
		if state.Progress != 0 {
			t.Errorf("expected zero progress for %s, got %d", id, state.Progress)
		}
	}
}

func TestRegistry_Initialize_ReplacesPrevious(t *testing.T) {
	reg := New()
	reg.Initialize(testItems("a"))

	status := domain.StatusCompleted
	hundred := 100
	reg.Update("a", Patch{Status: &status, Progress: &hundred})

	reg.Initialize(testItems("b"))

	if _, ok := reg.Get("a"); ok {
		t.Errorf("expected item a to be discarded after re-initialize")
	}
	state, ok := reg.Get("b")
	if !ok {
		t.Fatalf("expected item b to exist")
	}
	if state.Status != domain.StatusPending || state.Progress != 0 {
		t.Errorf("expected fresh pending state, got %+v", state)
	}
}

func TestRegistry_Update_MergesPartialState(t *testing.T) {
	reg := New()
	reg.Initialize(testItems("a"))

	status := domain.StatusDownloading
	five := 5
	reg.Update("a", Patch{Status: &status, Progress: &five})

	attempt := 2
	reg.Update("a", Patch{Attempt: &attempt})

	state, _ := reg.Get("a")
	if state.Status != domain.StatusDownloading {
		t.Errorf("expected status to survive attempt-only patch, got %s", state.Status)
	}
	if state.Progress != 5 {
		t.Errorf("expected progress 5, got %d", state.Progress)
	}
	if state.Attempt != 2 {
		t.Errorf("expected attempt 2, got %d", state.Attempt)
	}
}

func TestRegistry_Update_UnknownIDSilentlySkipped(t *testing.T) {
	reg := New()
	reg.Initialize(testItems("a"))

	status := domain.StatusFailed
	reg.Update("missing", Patch{Status: &status})

	if reg.Len() != 1 {
		t.Errorf("expected registry to remain at 1 item, got %d", reg.Len())
	}
	if _, ok := reg.Get("missing"); ok {
		t.Errorf("expected missing item to stay absent")
	}
}

func TestRegistry_Update_EmptyPatchIsIdempotent(t *testing.T) {
	reg := New()
	reg.Initialize(testItems("a"))

	status := domain.StatusUploading
	fifty := 50
	reg.Update("a", Patch{Status: &status, Progress: &fifty})
	before, _ := reg.Get("a")

	reg.Update("a", Patch{})

	after, _ := reg.Get("a")
	if before != after {
		t.Errorf("expected state unchanged by empty patch, before %+v after %+v", before, after)
	}
}

func TestRegistry_Snapshot_PreservesOrder(t *testing.T) {
	reg := New()
	reg.Initialize(testItems("c", "a", "b"))

	snapshot := reg.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 states, got %d", len(snapshot))
	}

	want := []string{"c", "a", "b"}
	for i, state := range snapshot {
		if state.ItemID != want[i] {
			t.Errorf("expected item %s at position %d, got %s", want[i], i, state.ItemID)
		}
	}
}

func TestRegistry_Snapshot_IsACopy(t *testing.T) {
	reg := New()
	reg.Initialize(testItems("a"))

	snapshot := reg.Snapshot()
	snapshot[0].Progress = 99

	state, _ := reg.Get("a")
	if state.Progress != 0 {
		t.Errorf("expected registry untouched by snapshot mutation, got progress %d", state.Progress)
	}
}
