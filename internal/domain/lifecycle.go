package domain

import "fmt"

// writerTransitions is the forward-only chain a writer may drive an
// assignment along. PENDING has no writer-initiated transition: a writer
// cannot hold a PENDING assignment because it must first be ASSIGNED.
var writerTransitions = map[AssignmentStatus][]AssignmentStatus{
	StatusPending:    {},
	StatusAssigned:   {StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {StatusPaid},
	StatusPaid:       {},
}

// CanWriterTransition returns true when a writer is allowed to move an
// assignment from one status to another.
func CanWriterTransition(from, to AssignmentStatus) bool {
	allowed, ok := writerTransitions[from]
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if candidate == to {
			return true
		}
	}
	return false
}

// ValidateWriterTransition ensures a writer-requested status change is valid.
// Admins bypass this check entirely and may set any status.
func ValidateWriterTransition(from, to AssignmentStatus) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("invalid assignment status transition")
	}
	if !CanWriterTransition(from, to) {
		return fmt.Errorf("assignment status transition %q -> %q not allowed", from, to)
	}
	return nil
}
