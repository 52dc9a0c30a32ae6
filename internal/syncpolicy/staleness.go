package syncpolicy

import "time"

// DefaultStaleAfter is the staleness window used when none is configured.
const DefaultStaleAfter = 15 * time.Minute

// StalenessPolicy decides whether cached data is old enough to refetch.
// It only gates automatic refreshes; forced refreshes and load-more skip it.
type StalenessPolicy struct {
	StaleAfter time.Duration
}

// NewStalenessPolicy returns a policy with window, or the default window when
// window is not positive.
func NewStalenessPolicy(window time.Duration) StalenessPolicy {
	if window <= 0 {
		window = DefaultStaleAfter
	}
	return StalenessPolicy{StaleAfter: window}
}

// IsStale takes epoch milliseconds. A tag never fetched (lastFetchedAt <= 0)
// is always stale.
func (p StalenessPolicy) IsStale(lastFetchedAt, now int64) bool {
	if lastFetchedAt <= 0 {
		return true
	}
	return now-lastFetchedAt > p.StaleAfter.Milliseconds()
}
