package streak

// windowDays is the trailing window the tracker scans. Recomputing from the
// window keeps the operation idempotent and crash-safe.
const windowDays = 30

// Runs walks an ordered day series (oldest first, newest last) and returns
// the contiguous qualifying run ending at the last day and the best
// contiguous run anywhere in the series.
func Runs(ok []bool) (current, best int) {
	run := 0
	for _, v := range ok {
		if v {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	current = run
	return current, best
}
