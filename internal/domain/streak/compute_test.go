package streak_test

import (
	"testing"

	"github.com/fambank/fambank-api/internal/domain/streak"
)

func TestRuns(t *testing.T) {
	tests := []struct {
		name        string
		days        []bool
		wantCurrent int
		wantBest    int
	}{
		{
			name:        "gap in the middle",
			days:        []bool{true, true, false, true, true, true},
			wantCurrent: 3,
			wantBest:    3,
		},
		{
			name:        "ends on a gap",
			days:        []bool{true, true, true, false},
			wantCurrent: 0,
			wantBest:    3,
		},
		{
			name:        "best run earlier than current",
			days:        []bool{true, true, true, true, false, true, true},
			wantCurrent: 2,
			wantBest:    4,
		},
		{
			name:        "all qualifying",
			days:        allOK(30),
			wantCurrent: 30,
			wantBest:    30,
		},
		{
			name:        "empty window",
			days:        nil,
			wantCurrent: 0,
			wantBest:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, best := streak.Runs(tt.days)
			if current != tt.wantCurrent || best != tt.wantBest {
				t.Fatalf("Runs() = (%d, %d), want (%d, %d)",
					current, best, tt.wantCurrent, tt.wantBest)
			}
		})
	}
}

func TestRunsIdempotent(t *testing.T) {
	days := []bool{true, false, true, true}
	c1, b1 := streak.Runs(days)
	c2, b2 := streak.Runs(days)
	if c1 != c2 || b1 != b2 {
		t.Fatalf("recomputation on unchanged data differs: (%d,%d) vs (%d,%d)", c1, b1, c2, b2)
	}
}

func allOK(n int) []bool {
	days := make([]bool, n)
	for i := range days {
		days[i] = true
	}
	return days
}
