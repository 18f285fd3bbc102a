package domain

import "testing"

func TestCanWriterTransition(t *testing.T) {
	tests := []struct {
		name string
		from AssignmentStatus
		to   AssignmentStatus
		want bool
	}{
		{"assigned to in_progress", StatusAssigned, StatusInProgress, true},
		{"in_progress to completed", StatusInProgress, StatusCompleted, true},
		{"completed to paid", StatusCompleted, StatusPaid, true},
		{"pending has no writer transition", StatusPending, StatusAssigned, false},
		{"no backward transition", StatusInProgress, StatusAssigned, false},
		{"no skipping", StatusAssigned, StatusCompleted, false},
		{"same status not a transition", StatusInProgress, StatusInProgress, false},
		{"paid is terminal", StatusPaid, StatusPending, false},
		{"unknown from", AssignmentStatus("DRAFT"), StatusAssigned, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanWriterTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanWriterTransition(%q, %q)=%v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestValidateWriterTransition(t *testing.T) {
	if err := ValidateWriterTransition(StatusAssigned, StatusInProgress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateWriterTransition(StatusInProgress, StatusPending); err == nil {
		t.Fatalf("expected backward transition to be rejected")
	}
	if err := ValidateWriterTransition(AssignmentStatus("bogus"), StatusPaid); err == nil {
		t.Fatalf("expected invalid status to be rejected")
	}
}

func TestDisplayStatus(t *testing.T) {
	a := Assignment{Status: StatusCompleted, Paid: true}
	if got := a.DisplayStatus(); got != StatusPaid {
		t.Fatalf("DisplayStatus()=%q, want PAID when paid flag set", got)
	}
	a.Paid = false
	if got := a.DisplayStatus(); got != StatusCompleted {
		t.Fatalf("DisplayStatus()=%q, want stored status when unpaid", got)
	}
}

func TestParseAssignmentStatus(t *testing.T) {
	if s, err := ParseAssignmentStatus("in_progress"); err != nil || s != StatusInProgress {
		t.Fatalf("ParseAssignmentStatus(in_progress)=%q, %v", s, err)
	}
	if _, err := ParseAssignmentStatus("SHIPPED"); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
}
