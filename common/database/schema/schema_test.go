package schema

import (
	"testing"
	"time"
)

func TestPendingSkipsApplied(t *testing.T) {
	migrations := []Migration{
		{Version: 1, Description: "one"},
		{Version: 2, Description: "two"},
		{Version: 3, Description: "three"},
	}
	applied := map[int]time.Time{2: time.Now()}

	got := Pending(migrations, applied)
	if len(got) != 2 {
		t.Fatalf("Pending returned %d migrations, want 2", len(got))
	}
	if got[0].Version != 1 || got[1].Version != 3 {
		t.Errorf("Pending order = [%d %d], want [1 3]", got[0].Version, got[1].Version)
	}
}

func TestPendingNothingApplied(t *testing.T) {
	migrations := []Migration{{Version: 1}}
	if got := Pending(migrations, nil); len(got) != 1 {
		t.Fatalf("Pending with empty history returned %d, want 1", len(got))
	}
}
