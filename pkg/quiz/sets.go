package quiz

import "sort"

// QuizSet is a flat ordered list of cases alternating between two labels:
// even indices from label A, odd indices from label B.
type QuizSet []Case

// BuildSets deterministically partitions two label buckets into count
// paired quiz sets. Both inputs are sorted ascending by case ID before
// slicing; that sort is the sole source of determinism, there is no
// randomness anywhere in set construction.
//
// The preferred per-class size is tried first. An attempt is abandoned
// whenever it cannot produce all count full sets, after which the fallback
// size is tried; if the fallback attempt fails too the result is empty.
func BuildSets(a, b []Case, count, preferredPerClass, fallbackPerClass int) []QuizSet {
	aSorted := sortedByID(a)
	bSorted := sortedByID(b)

	for _, perClass := range []int{preferredPerClass, fallbackPerClass} {
		if sets, ok := buildAttempt(aSorted, bSorted, count, perClass); ok {
			return sets
		}
	}

	return []QuizSet{}
}

// buildAttempt slices count contiguous chunks of perClass cases from each
// sorted bucket and interleaves them pairwise. It fails when either bucket
// cannot fill every chunk.
func buildAttempt(a, b []Case, count, perClass int) ([]QuizSet, bool) {
	if count <= 0 || perClass <= 0 {
		return nil, false
	}

	need := count * perClass
	if len(a) < need || len(b) < need {
		return nil, false
	}

	sets := make([]QuizSet, 0, count)
	for i := 0; i < count; i++ {
		aa := a[i*perClass : (i+1)*perClass]
		bb := b[i*perClass : (i+1)*perClass]

		merged := make(QuizSet, 0, 2*perClass)
		for j := 0; j < perClass; j++ {
			merged = append(merged, aa[j], bb[j])
		}
		sets = append(sets, merged)
	}

	return sets, true
}

func sortedByID(cases []Case) []Case {
	out := make([]Case, len(cases))
	copy(out, cases)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
