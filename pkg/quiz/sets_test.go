package quiz

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labeledCases(label Label, prefix string, n int) []Case {
	cases := make([]Case, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s_%07d", prefix, i)
		cases = append(cases, Case{
			ID:        id,
			ImageURL:  "https://example.com/" + id + ".jpg",
			Diagnosis: label,
			Source:    "test",
		})
	}
	return cases
}

func TestBuildSets(t *testing.T) {
	t.Run("full buckets yield count sets of preferred size", func(t *testing.T) {
		a := labeledCases(LabelMelanoma, "ISIC_A", 15)
		b := labeledCases(LabelNevus, "ISIC_B", 15)

		sets := BuildSets(a, b, 3, 5, 3)

		require.Len(t, sets, 3)
		for _, set := range sets {
			assert.Len(t, set, 10)
		}

		// First set holds the five lowest IDs of each side, interleaved
		// A0 B0 A1 B1 ...
		assert.Equal(t, "ISIC_A_0000000", sets[0][0].ID)
		assert.Equal(t, "ISIC_B_0000000", sets[0][1].ID)
		assert.Equal(t, "ISIC_A_0000001", sets[0][2].ID)
		assert.Equal(t, "ISIC_B_0000001", sets[0][3].ID)
		// Second set continues where the first left off.
		assert.Equal(t, "ISIC_A_0000005", sets[1][0].ID)
		assert.Equal(t, "ISIC_B_0000005", sets[1][1].ID)
	})

	t.Run("falls back to smaller per-class size", func(t *testing.T) {
		a := labeledCases(LabelActinicKeratosis, "ISIC_A", 9)
		b := labeledCases(LabelBowen, "ISIC_B", 9)

		sets := BuildSets(a, b, 3, 5, 3)

		require.Len(t, sets, 3)
		for _, set := range sets {
			assert.Len(t, set, 6)
		}
	})

	t.Run("returns empty when even the fallback cannot fill every set", func(t *testing.T) {
		a := labeledCases(LabelBCC, "ISIC_A", 5)
		b := labeledCases(LabelSebaceousHyperplasia, "ISIC_B", 5)

		// 5 cases can fill one fallback set but not all three; the run is
		// all-or-nothing, so no partial output.
		sets := BuildSets(a, b, 3, 5, 3)

		require.NotNil(t, sets)
		assert.Empty(t, sets)
	})

	t.Run("uneven buckets are limited by the smaller side", func(t *testing.T) {
		a := labeledCases(LabelMelanoma, "ISIC_A", 15)
		b := labeledCases(LabelNevus, "ISIC_B", 9)

		sets := BuildSets(a, b, 3, 5, 3)

		require.Len(t, sets, 3)
		for _, set := range sets {
			assert.Len(t, set, 6)
		}
	})

	t.Run("input order does not matter", func(t *testing.T) {
		a := labeledCases(LabelMelanoma, "ISIC_A", 15)
		b := labeledCases(LabelNevus, "ISIC_B", 15)

		shuffledA := make([]Case, len(a))
		copy(shuffledA, a)
		shuffledB := make([]Case, len(b))
		copy(shuffledB, b)
		rng := rand.New(rand.NewSource(42))
		rng.Shuffle(len(shuffledA), func(i, j int) { shuffledA[i], shuffledA[j] = shuffledA[j], shuffledA[i] })
		rng.Shuffle(len(shuffledB), func(i, j int) { shuffledB[i], shuffledB[j] = shuffledB[j], shuffledB[i] })

		assert.Equal(t, BuildSets(a, b, 3, 5, 3), BuildSets(shuffledA, shuffledB, 3, 5, 3))
	})

	t.Run("repeated runs are identical", func(t *testing.T) {
		a := labeledCases(LabelMelanoma, "ISIC_A", 15)
		b := labeledCases(LabelNevus, "ISIC_B", 15)

		first := BuildSets(a, b, 3, 5, 3)
		second := BuildSets(a, b, 3, 5, 3)

		assert.Equal(t, first, second)
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		a := labeledCases(LabelMelanoma, "ISIC_A", 15)
		// Reverse so sorting inside BuildSets would be visible if it leaked.
		for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
			a[i], a[j] = a[j], a[i]
		}
		b := labeledCases(LabelNevus, "ISIC_B", 15)

		assert.Equal(t, "ISIC_A_0000014", a[0].ID)
		BuildSets(a, b, 3, 5, 3)
		assert.Equal(t, "ISIC_A_0000014", a[0].ID)
	})
}

func TestBuildSetsAlternation(t *testing.T) {
	a := labeledCases(LabelBCC, "ISIC_A", 15)
	b := labeledCases(LabelSebaceousHyperplasia, "ISIC_B", 15)

	for _, set := range BuildSets(a, b, 3, 5, 3) {
		for i, c := range set {
			want := LabelBCC
			if i%2 == 1 {
				want = LabelSebaceousHyperplasia
			}
			assert.Equal(t, want, c.Diagnosis, "index %d", i)
		}
	}
}

func TestBuildSetsNoReuseAcrossSets(t *testing.T) {
	a := labeledCases(LabelMelanoma, "ISIC_A", 20)
	b := labeledCases(LabelNevus, "ISIC_B", 20)

	seen := make(map[string]bool)
	for _, set := range BuildSets(a, b, 3, 5, 3) {
		for _, c := range set {
			assert.False(t, seen[c.ID], "case %s reused", c.ID)
			seen[c.ID] = true
		}
	}
	assert.Len(t, seen, 30)
}

func TestLabelValid(t *testing.T) {
	for _, label := range Labels() {
		assert.True(t, label.Valid(), string(label))
	}
	assert.False(t, Label("psoriasis").Valid())
	assert.False(t, Label("").Valid())
}
