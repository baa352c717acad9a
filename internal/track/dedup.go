package track

// Unique returns the first occurrence of every value in order. Later exact
// duplicates are dropped; values are never modified.
func Unique[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// UniquePositions dedups a rendered path by coordinate pair.
func UniquePositions(in []Position) []Position { return Unique(in) }

// UniqueFixes dedups the cost/event input by full-record equality.
func UniqueFixes(in []FixRecord) []FixRecord { return Unique(in) }
