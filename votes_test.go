package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipQuorum(t *testing.T) {
	tests := []struct {
		name      string
		connected int
		ratio     float64
		want      int
	}{
		{name: "empty party", connected: 0, ratio: 0.3, want: 2},
		{name: "two users", connected: 2, ratio: 0.3, want: 2},
		{name: "five users", connected: 5, ratio: 0.3, want: 2},
		{name: "ten users", connected: 10, ratio: 0.3, want: 3},
		{name: "truncates not rounds", connected: 9, ratio: 0.3, want: 2},
		{name: "twenty users", connected: 20, ratio: 0.3, want: 6},
		{name: "higher ratio", connected: 10, ratio: 0.5, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, skipQuorum(tt.connected, tt.ratio))
		})
	}
}

func TestVoteLedgerCastKick(t *testing.T) {
	v := newVoteLedger()
	a, b := &Client{}, &Client{}

	tally, counted := v.castKick("Mallory", "Alice", a)
	assert.True(t, counted)
	assert.Equal(t, 1, tally)
	assert.Equal(t, "Alice", v.kicks["Mallory"].initiator)

	// Duplicate vote from the same connection does not count.
	tally, counted = v.castKick("Mallory", "Alice", a)
	assert.False(t, counted)
	assert.Equal(t, 1, tally)

	tally, counted = v.castKick("Mallory", "Bob", b)
	assert.True(t, counted)
	assert.Equal(t, 2, tally)

	v.dropKick("Mallory")
	require.NotContains(t, v.kicks, "Mallory")

	// A vote after resolution starts a fresh record.
	tally, counted = v.castKick("Mallory", "Bob", b)
	assert.True(t, counted)
	assert.Equal(t, 1, tally)
}

func TestVoteLedgerCastSkip(t *testing.T) {
	v := newVoteLedger()
	a, b := &Client{}, &Client{}

	tally, counted := v.castSkip(a)
	assert.True(t, counted)
	assert.Equal(t, 1, tally)

	tally, counted = v.castSkip(a)
	assert.False(t, counted)
	assert.Equal(t, 1, tally)

	tally, counted = v.castSkip(b)
	assert.True(t, counted)
	assert.Equal(t, 2, tally)

	v.resetSkips()
	tally, counted = v.castSkip(a)
	assert.True(t, counted)
	assert.Equal(t, 1, tally)
}

func TestVoteLedgerPurge(t *testing.T) {
	v := newVoteLedger()
	leaver, other := &Client{}, &Client{}

	// leaver is a kick target, a kick voter, and a skip voter.
	_, _ = v.castKick("Leaver", "Other", other)
	_, _ = v.castKick("Other", "Leaver", leaver)
	_, _ = v.castKick("Other", "Third", other)
	_, _ = v.castSkip(leaver)

	v.purge(leaver, "Leaver")

	assert.NotContains(t, v.kicks, "Leaver", "record targeting the leaver is invalidated")
	require.Contains(t, v.kicks, "Other")
	assert.Len(t, v.kicks["Other"].voters, 1, "leaver's vote against Other is withdrawn")
	assert.Empty(t, v.skips)
}

func TestVoteLedgerPurgeDropsEmptyRecords(t *testing.T) {
	v := newVoteLedger()
	only := &Client{}

	_, _ = v.castKick("Target", "Only", only)
	v.purge(only, "Only")

	assert.Empty(t, v.kicks)
}
