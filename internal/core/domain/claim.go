package domain

import "time"

// BatchClaim is a worker's exclusive, time-bounded reservation of one
// inscription-number range. Start and End are inclusive.
type BatchClaim struct {
	Start     int64     `json:"start"`
	End       int64     `json:"end"`
	WorkerID  string    `json:"worker_id"`
	ClaimedAt time.Time `json:"claimed_at"`
	TTL       int64     `json:"ttl_seconds"`
}

// Overlaps reports whether two claims reserve any common number.
func (c BatchClaim) Overlaps(start, end int64) bool {
	return c.Start <= end && start <= c.End
}

// ExpiresAt returns the wall-clock expiry of the claim.
func (c BatchClaim) ExpiresAt() time.Time {
	return c.ClaimedAt.Add(time.Duration(c.TTL) * time.Second)
}
