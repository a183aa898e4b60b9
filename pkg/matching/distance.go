package matching

// Levenshtein calculates the edit distance between two strings over their code points.
// It keeps two rows of the dynamic-programming matrix sized by the shorter input, so space
// is O(min(|a|,|b|)).
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Columns follow the shorter string
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	row := make([]int, len(rb)+1)
	prevRow := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			row[j] = min(row[j-1]+1, prevRow[j]+1, prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(rb)]
}
