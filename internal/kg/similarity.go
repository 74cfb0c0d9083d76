package kg

// ratio returns a normalized edit similarity in [0, 1]: one minus the
// Levenshtein distance divided by the longer input's length. Comparison is
// case-sensitive; callers normalize case on both sides first.
func ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0.0
	}

	longer := la
	if lb > longer {
		longer = lb
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longer)
}

// levenshtein computes the edit distance between two byte strings using a
// single-row dynamic programming table. Catalog identifiers are ASCII, so
// byte-wise comparison is fine.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	row := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		row[j] = j
	}

	for i := 1; i <= la; i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur := min3(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = cur
		}
	}
	return row[lb]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
