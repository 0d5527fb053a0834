package conversation

import (
	"testing"
)

func TestAppendAssignsIDAndPreservesOrder(t *testing.T) {
	log := NewLog()

	first := log.Append(Turn{Role: RoleUser, Kind: KindText, Content: "one"})
	second := log.Append(Turn{Role: RoleAssistant, Kind: KindText, Content: "two"})

	if first.ID == "" || second.ID == "" {
		t.Fatalf("Append did not assign IDs: %q, %q", first.ID, second.ID)
	}
	if first.ID == second.ID {
		t.Fatalf("turn IDs not unique: %q", first.ID)
	}
	if second.CreatedAt.Before(first.CreatedAt) {
		t.Fatalf("CreatedAt not monotonic with insertion order")
	}

	snap := log.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot len = %d, want 2", len(snap))
	}
	if snap[0].Content != "one" || snap[1].Content != "two" {
		t.Fatalf("snapshot order = [%q, %q], want [one, two]", snap[0].Content, snap[1].Content)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	log := NewLog()
	log.Append(Turn{Role: RoleUser, Kind: KindText, Content: "original"})

	snap := log.Snapshot()
	snap[0].Content = "mutated"

	if got := log.Snapshot()[0].Content; got != "original" {
		t.Fatalf("log content = %q, want %q", got, "original")
	}
}

func TestClearEmptiesLog(t *testing.T) {
	log := NewLog()
	log.Append(Turn{Role: RoleUser, Kind: KindText, Content: "hi"})
	log.Clear()

	if log.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", log.Len())
	}
}

func TestSubscribeReceivesAppendAndClear(t *testing.T) {
	log := NewLog()
	events, cancel := log.Subscribe()
	defer cancel()

	log.Append(Turn{Role: RoleUser, Kind: KindText, Content: "hello"})
	log.Clear()

	e := <-events
	if e.Type != EventTurn {
		t.Fatalf("first event type = %q, want %q", e.Type, EventTurn)
	}
	if e.Turn == nil || e.Turn.Content != "hello" {
		t.Fatalf("first event turn = %+v, want content hello", e.Turn)
	}

	e = <-events
	if e.Type != EventCleared {
		t.Fatalf("second event type = %q, want %q", e.Type, EventCleared)
	}
}

func TestCancelledSubscriptionStopsReceiving(t *testing.T) {
	log := NewLog()
	events, cancel := log.Subscribe()
	cancel()

	log.Append(Turn{Role: RoleUser, Kind: KindText, Content: "late"})

	if _, ok := <-events; ok {
		t.Fatalf("expected closed event channel after cancel")
	}
}
