// Package scoring ranks contact records by how much contact information they carry.
package scoring

import (
	"sort"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Field weights of the completeness heuristic
const (
	WeightGivenName  = 2
	WeightFamilyName = 2
	WeightPhone      = 3
	WeightEmail      = 2
	WeightOrg        = 1
	WeightJobTitle   = 1
	WeightAddress    = 1
)

// Options controls how ties between equal scores are broken
type Options struct {
	// TieBreakByID orders equal scores by record ID ascending instead of input order.
	TieBreakByID bool
}

// Score returns the completeness score of a record. Higher is more complete.
func Score(c models.ContactRecord) int {
	score := 0
	if hasText(c.GivenName) {
		score += WeightGivenName
	}
	if hasText(c.FamilyName) {
		score += WeightFamilyName
	}
	score += WeightPhone * len(c.Phones)
	score += WeightEmail * len(c.Emails)
	if hasText(c.OrganizationName) {
		score += WeightOrg
	}
	if hasText(c.JobTitle) {
		score += WeightJobTitle
	}
	score += WeightAddress * len(c.PostalAddresses)
	return score
}

// Rank returns the records sorted by score descending together with their scores.
// Equal scores keep their input order unless opts.TieBreakByID is set.
// The input slice is not modified.
func Rank(records []models.ContactRecord, opts Options) ([]models.ContactRecord, []int) {
	idx := make([]int, len(records))
	scores := make([]int, len(records))
	for i := range records {
		idx[i] = i
		scores[i] = Score(records[i])
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		if opts.TieBreakByID {
			return records[ia].ID < records[ib].ID
		}
		return false
	})

	ranked := make([]models.ContactRecord, len(records))
	rankedScores := make([]int, len(records))
	for i, j := range idx {
		ranked[i] = records[j]
		rankedScores[i] = scores[j]
	}
	return ranked, rankedScores
}

// Best returns the index of the highest scoring record; the first occurrence wins a tie
// unless opts.TieBreakByID is set. It returns -1 for an empty slice.
func Best(records []models.ContactRecord, opts Options) int {
	best := -1
	bestScore := 0
	for i, c := range records {
		s := Score(c)
		switch {
		case best == -1, s > bestScore:
			best, bestScore = i, s
		case s == bestScore && opts.TieBreakByID && c.ID < records[best].ID:
			best = i
		}
	}
	return best
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
