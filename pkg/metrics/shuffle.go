package metrics

import "math/rand"

// Shuffle returns a seeded uniform permutation of items, leaving the input
// untouched. Downstream sorts by value are stable over this order, so runs
// with the same seed and the same multiset of inputs produce identical group
// assignments even when values tie.
func Shuffle[T any](items []T, seed int64) []T {
	out := make([]T, len(items))
	copy(out, items)

	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
