package main

// kickVote tracks the distinct voters against one target name. A record
// lives until the threshold fires or the target disconnects.
type kickVote struct {
	target    string
	initiator string
	voters    map[*Client]bool
}

// voteLedger holds both voting structures: per-target kick records and
// the single skip-vote round. Owned by the Hub.
type voteLedger struct {
	kicks map[string]*kickVote
	skips map[*Client]bool
}

func newVoteLedger() *voteLedger {
	return &voteLedger{
		kicks: make(map[string]*kickVote),
		skips: make(map[*Client]bool),
	}
}

// castKick records one vote against target, creating the record on
// first vote. Reports the updated tally and whether the vote counted
// (false on duplicates).
func (v *voteLedger) castKick(target, initiator string, voter *Client) (tally int, counted bool) {
	rec, ok := v.kicks[target]
	if !ok {
		rec = &kickVote{
			target:    target,
			initiator: initiator,
			voters:    make(map[*Client]bool),
		}
		v.kicks[target] = rec
	}
	if rec.voters[voter] {
		return len(rec.voters), false
	}
	rec.voters[voter] = true
	return len(rec.voters), true
}

func (v *voteLedger) dropKick(target string) {
	delete(v.kicks, target)
}

// castSkip adds voter to the current skip round, reporting the tally
// and whether the vote was new.
func (v *voteLedger) castSkip(voter *Client) (tally int, counted bool) {
	if v.skips[voter] {
		return len(v.skips), false
	}
	v.skips[voter] = true
	return len(v.skips), true
}

// resetSkips clears the skip round. Runs whenever the queue advances,
// however it advances.
func (v *voteLedger) resetSkips() {
	v.skips = make(map[*Client]bool)
}

// purge removes every trace of a departing connection: the kick record
// naming it as target, its votes against others, and its skip vote.
// Records left with no voters are dropped.
func (v *voteLedger) purge(c *Client, name string) {
	delete(v.kicks, name)
	for target, rec := range v.kicks {
		delete(rec.voters, c)
		if len(rec.voters) == 0 {
			delete(v.kicks, target)
		}
	}
	delete(v.skips, c)
}

// skipQuorum is the vote count required to skip: the greater of 2 and
// ratio * connected, truncated.
func skipQuorum(connected int, ratio float64) int {
	q := int(ratio * float64(connected))
	if q < 2 {
		q = 2
	}
	return q
}
