package practice

// Queue is the ordered working set of unresolved question ids. The head is
// the question being presented.
type Queue struct {
	ids []string
}

// NewQueue builds a queue from ids in order. Repeated ids keep their first
// position only, so an id is in the queue at most once.
func NewQueue(ids []string) *Queue {
	seen := make(map[string]bool, len(ids))
	q := &Queue{ids: make([]string, 0, len(ids))}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		q.ids = append(q.ids, id)
	}
	return q
}

// Current returns the head id, or false when the queue is empty.
func (q *Queue) Current() (string, bool) {
	if len(q.ids) == 0 {
		return "", false
	}
	return q.ids[0], true
}

// Requeue moves the head to the tail.
func (q *Queue) Requeue() {
	if len(q.ids) < 2 {
		return
	}
	head := q.ids[0]
	copy(q.ids, q.ids[1:])
	q.ids[len(q.ids)-1] = head
}

// Retire removes the head permanently.
func (q *Queue) Retire() {
	if len(q.ids) == 0 {
		return
	}
	q.ids = q.ids[1:]
}

// Len returns the number of unresolved questions.
func (q *Queue) Len() int {
	return len(q.ids)
}

// IDs returns a copy of the queue contents, head first.
func (q *Queue) IDs() []string {
	out := make([]string, len(q.ids))
	copy(out, q.ids)
	return out
}
