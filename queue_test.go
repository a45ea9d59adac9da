package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoQueueFIFO(t *testing.T) {
	var q videoQueue

	q.enqueue(QueueEntry{URL: "a", Title: "A"})
	q.enqueue(QueueEntry{URL: "b", Title: "B"})

	head, ok := q.advance()
	require.True(t, ok)
	assert.Equal(t, "A", head.Title)
	assert.Equal(t, []QueueEntry{{URL: "b", Title: "B"}}, q.snapshot())

	head, ok = q.advance()
	require.True(t, ok)
	assert.Equal(t, "B", head.Title)

	_, ok = q.advance()
	assert.False(t, ok)
}

func TestVideoQueueRemoveAt(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{name: "middle", index: 1, want: []string{"A", "C"}},
		{name: "head", index: 0, want: []string{"B", "C"}},
		{name: "tail", index: 2, want: []string{"A", "B"}},
		{name: "negative", index: -1, want: []string{"A", "B", "C"}},
		{name: "past end", index: 3, want: []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q videoQueue
			q.enqueue(QueueEntry{Title: "A"})
			q.enqueue(QueueEntry{Title: "B"})
			q.enqueue(QueueEntry{Title: "C"})

			q.removeAt(tt.index)

			titles := make([]string, 0, q.len())
			for _, e := range q.snapshot() {
				titles = append(titles, e.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestVideoQueueClear(t *testing.T) {
	var q videoQueue
	q.enqueue(QueueEntry{Title: "A"})
	q.enqueue(QueueEntry{Title: "B"})

	q.clear()

	assert.Zero(t, q.len())
	_, ok := q.advance()
	assert.False(t, ok)
}

func TestVideoQueueSnapshotIsACopy(t *testing.T) {
	var q videoQueue
	q.enqueue(QueueEntry{Title: "A"})

	snap := q.snapshot()
	snap[0].Title = "mutated"

	assert.Equal(t, "A", q.snapshot()[0].Title)
}
