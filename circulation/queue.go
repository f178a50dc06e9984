package circulation

// Pure reservation-queue logic. All queue mutations in the command handlers go
// through these helpers so the dense 1..N position invariant holds after every
// transition.

// NextInLine returns the active reservation with the smallest queue position,
// or nil if none of the given reservations is active.
func NextInLine(reservations []Reservation) *Reservation {
	var head *Reservation

	for i := range reservations {
		r := &reservations[i]
		if !r.IsActive() {
			continue
		}

		if head == nil || r.QueuePosition < head.QueuePosition {
			head = r
		}
	}

	return head
}

// NextQueuePosition returns the position a newly created reservation takes:
// one past the highest active position, 1 for an empty queue.
func NextQueuePosition(reservations []Reservation) int {
	maxPos := 0

	for _, r := range reservations {
		if r.IsActive() && r.QueuePosition > maxPos {
			maxPos = r.QueuePosition
		}
	}

	return maxPos + 1
}

// CompactQueueAfterRemoval renumbers the active reservations after the one at
// removedPosition left the active set: every active position greater than
// removedPosition is decremented by one, restoring a contiguous 1..N run.
// It returns the reservations whose position changed.
func CompactQueueAfterRemoval(reservations []Reservation, removedPosition int) []Reservation {
	changed := make([]Reservation, 0)

	for _, r := range reservations {
		if !r.IsActive() || r.QueuePosition <= removedPosition {
			continue
		}

		r.QueuePosition--
		changed = append(changed, r)
	}

	return changed
}

// QueuePositionsAreDense reports whether the active reservations carry exactly
// the positions {1..N} with no duplicates or gaps.
func QueuePositionsAreDense(reservations []Reservation) bool {
	seen := make(map[int]bool)
	active := 0

	for _, r := range reservations {
		if !r.IsActive() {
			continue
		}

		active++

		if r.QueuePosition < 1 || seen[r.QueuePosition] {
			return false
		}

		seen[r.QueuePosition] = true
	}

	for pos := 1; pos <= active; pos++ {
		if !seen[pos] {
			return false
		}
	}

	return true
}
