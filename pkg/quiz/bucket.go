package quiz

// Bucket is an append-only, capped collection of cases for one label.
// Every case ID appears at most once; with lesion dedup enabled every
// non-empty lesion ID appears at most once as well.
type Bucket struct {
	target      int
	lesionDedup bool
	cases       []Case
	seenIDs     map[string]struct{}
	seenLesions map[string]struct{}
}

// NewBucket creates an empty bucket capped at target cases.
func NewBucket(target int, lesionDedup bool) *Bucket {
	return &Bucket{
		target:      target,
		lesionDedup: lesionDedup,
		seenIDs:     make(map[string]struct{}),
		seenLesions: make(map[string]struct{}),
	}
}

// RestoreBucket rebuilds a bucket from checkpointed cases, replaying them
// through Add so the dedup state matches the state it was saved with.
func RestoreBucket(target int, lesionDedup bool, cases []Case) *Bucket {
	b := NewBucket(target, lesionDedup)
	for _, c := range cases {
		b.Add(c)
	}
	return b
}

// Add appends a case unless the bucket is full, the case is invalid, its ID
// was already accepted, or (with lesion dedup) its lesion already
// contributed a case. Returns true when the case was accepted.
func (b *Bucket) Add(c Case) bool {
	if b.Full() || !c.Valid() {
		return false
	}
	if _, dup := b.seenIDs[c.ID]; dup {
		return false
	}
	if b.lesionDedup && c.LesionID != "" {
		if _, dup := b.seenLesions[c.LesionID]; dup {
			return false
		}
	}

	b.cases = append(b.cases, c)
	b.seenIDs[c.ID] = struct{}{}
	if c.LesionID != "" {
		b.seenLesions[c.LesionID] = struct{}{}
	}
	return true
}

// HasLesion reports whether a non-empty lesion ID already contributed an
// accepted case.
func (b *Bucket) HasLesion(lesionID string) bool {
	if lesionID == "" {
		return false
	}
	_, ok := b.seenLesions[lesionID]
	return ok
}

// Full reports whether the bucket reached its target size.
func (b *Bucket) Full() bool {
	return len(b.cases) >= b.target
}

// Len returns the number of accepted cases.
func (b *Bucket) Len() int {
	return len(b.cases)
}

// Target returns the bucket's cap.
func (b *Bucket) Target() int {
	return b.target
}

// Cases returns a copy of the accepted cases in acceptance order.
func (b *Bucket) Cases() []Case {
	out := make([]Case, len(b.cases))
	copy(out, b.cases)
	return out
}
