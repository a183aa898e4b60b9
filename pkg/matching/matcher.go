// Package matching decides whether two contact records describe the same person.
package matching

import (
	"strings"
	"unicode/utf8"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Reason names the rule that flagged a pair as duplicates
type Reason string

const (
	ReasonNone  Reason = ""
	ReasonPhone Reason = "shared_phone"
	ReasonEmail Reason = "shared_email"
	ReasonName  Reason = "similar_name"
)

// minFuzzyNameLength is the length a name must exceed before edit distance is considered
const minFuzzyNameLength = 3

// Profile holds the normalized comparison keys of one record.
// Building profiles once per record keeps pairwise comparison allocation free.
type Profile struct {
	Name   string
	Phones map[string]struct{}
	Emails map[string]struct{}
}

// NewProfile computes the comparison keys of a record. Empty normalized values are dropped.
func NewProfile(c models.ContactRecord) Profile {
	p := Profile{
		Name:   normalizers.NormalizeName(c.GivenName, c.FamilyName),
		Phones: make(map[string]struct{}, len(c.Phones)),
		Emails: make(map[string]struct{}, len(c.Emails)),
	}
	for _, phone := range c.Phones {
		if key := normalizers.NormalizePhone(phone.Value); key != "" {
			p.Phones[key] = struct{}{}
		}
	}
	for _, email := range c.Emails {
		if key := normalizers.NormalizeEmail(email.Value); key != "" {
			p.Emails[key] = struct{}{}
		}
	}
	return p
}

// SharesPhone reports whether the two profiles have a normalized phone in common
func (p Profile) SharesPhone(q Profile) bool {
	return intersects(p.Phones, q.Phones)
}

// SharesEmail reports whether the two profiles have a normalized email in common
func (p Profile) SharesEmail(q Profile) bool {
	return intersects(p.Emails, q.Emails)
}

// SharesContactMethod reports whether the profiles share a phone or an email
func (p Profile) SharesContactMethod(q Profile) bool {
	return p.SharesPhone(q) || p.SharesEmail(q)
}

// MatchProfiles evaluates the rule cascade in priority order and returns the first rule
// that fires, or ReasonNone.
func MatchProfiles(p, q Profile) Reason {
	if p.SharesPhone(q) {
		return ReasonPhone
	}
	if p.SharesEmail(q) {
		return ReasonEmail
	}
	// A similar name alone never matches; it needs a shared contact method as well.
	if NamesSimilar(p.Name, q.Name) && p.SharesContactMethod(q) {
		return ReasonName
	}
	return ReasonNone
}

// Match returns the rule that flags a and b as duplicates, or ReasonNone
func Match(a, b models.ContactRecord) Reason {
	return MatchProfiles(NewProfile(a), NewProfile(b))
}

// IsDuplicate reports whether a and b describe the same person. It is symmetric.
func IsDuplicate(a, b models.ContactRecord) bool {
	return Match(a, b) != ReasonNone
}

// ShareAnyContactMethod reports whether a and b share a normalized phone or email,
// ignoring empty normalized values.
func ShareAnyContactMethod(a, b models.ContactRecord) bool {
	return NewProfile(a).SharesContactMethod(NewProfile(b))
}

// NamesSimilar compares two normalized names: equal, one containing the other, or within
// max(2, 20% of the longer length) edits when the longer name has more than 3 characters.
func NamesSimilar(n1, n2 string) bool {
	if n1 == "" || n2 == "" {
		return false
	}
	if n1 == n2 {
		return true
	}
	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return true
	}

	maxLen := max(utf8.RuneCountInString(n1), utf8.RuneCountInString(n2))
	if maxLen <= minFuzzyNameLength {
		return false
	}
	threshold := max(2, maxLen/5)
	return Levenshtein(n1, n2) <= threshold
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
