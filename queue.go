package main

// QueueEntry is one pending video in the party queue.
type QueueEntry struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Duration int    `json:"duration"` // seconds
	AddedBy  string `json:"added_by"`
}

// videoQueue is the ordered list of pending videos. Owned by the Hub;
// only touched while the Hub mutex is held.
type videoQueue struct {
	entries []QueueEntry
}

func (q *videoQueue) enqueue(e QueueEntry) {
	q.entries = append(q.entries, e)
}

// removeAt drops the entry at index. Out-of-range indexes are ignored.
func (q *videoQueue) removeAt(index int) {
	if index < 0 || index >= len(q.entries) {
		return
	}
	q.entries = append(q.entries[:index], q.entries[index+1:]...)
}

// advance pops and returns the head of the queue, if any.
func (q *videoQueue) advance() (QueueEntry, bool) {
	if len(q.entries) == 0 {
		return QueueEntry{}, false
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return head, true
}

func (q *videoQueue) clear() {
	q.entries = nil
}

func (q *videoQueue) len() int {
	return len(q.entries)
}

// snapshot returns a copy safe to hand to the json encoder after the
// Hub mutex is released.
func (q *videoQueue) snapshot() []QueueEntry {
	out := make([]QueueEntry, len(q.entries))
	copy(out, q.entries)
	return out
}
