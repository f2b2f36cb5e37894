package database

import "testing"

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{StatusQueued, StatusProcessing, StatusDone, StatusFailed} {
		if !IsValidStatus(s) {
			t.Errorf("expected %q to be a valid status", s)
		}
	}
	for _, s := range []string{"", "pending", "QUEUED", "error"} {
		if IsValidStatus(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		allowed  bool
	}{
		{StatusQueued, StatusProcessing, true},
		{StatusQueued, StatusDone, true},
		{StatusQueued, StatusFailed, true},
		{StatusProcessing, StatusDone, true},
		{StatusProcessing, StatusFailed, true},

		// no backwards movement
		{StatusProcessing, StatusQueued, false},
		{StatusDone, StatusQueued, false},
		{StatusDone, StatusProcessing, false},

		// terminal states never transition, not even to each other
		{StatusDone, StatusFailed, false},
		{StatusFailed, StatusDone, false},
		{StatusFailed, StatusProcessing, false},

		// no self transitions
		{StatusQueued, StatusQueued, false},
		{StatusProcessing, StatusProcessing, false},

		// unknown statuses
		{"bogus", StatusDone, false},
		{StatusQueued, "bogus", false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.allowed {
			t.Errorf("CanTransition(%q, %q) = %v, expected %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestIsValidSortOrder(t *testing.T) {
	for _, s := range []string{SortFilenameAsc, SortFilenameNat, SortDateDesc, SortDateAsc} {
		if !IsValidSortOrder(s) {
			t.Errorf("expected %q to be a valid sort order", s)
		}
	}
	if IsValidSortOrder("filename_desc") {
		t.Error("expected unknown sort order to be rejected")
	}
	if DefaultSortOrder != SortDateDesc {
		t.Errorf("default sort order = %q, expected %q", DefaultSortOrder, SortDateDesc)
	}
}
