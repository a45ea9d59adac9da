package main

import "time"

// rateLimiter enforces a per-connection cooldown between chat messages.
// Pure wall-clock comparison against the supplied time; nothing is
// scheduled. Access is serialized by the Hub.
type rateLimiter struct {
	cooldown time.Duration
	last     map[*Client]time.Time
}

func newRateLimiter(cooldown time.Duration) *rateLimiter {
	return &rateLimiter{
		cooldown: cooldown,
		last:     make(map[*Client]time.Time),
	}
}

// admit reports whether c may send a chat message at now. The first
// message from a connection is always admitted. On denial no state
// changes and the remaining wait is returned.
func (rl *rateLimiter) admit(c *Client, now time.Time) (bool, time.Duration) {
	if last, ok := rl.last[c]; ok {
		if wait := rl.cooldown - now.Sub(last); wait > 0 {
			return false, wait
		}
	}
	rl.last[c] = now
	return true, 0
}

func (rl *rateLimiter) forget(c *Client) {
	delete(rl.last, c)
}
