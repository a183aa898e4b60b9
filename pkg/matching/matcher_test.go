package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func contact(id, given, family string, phones, emails []string) models.ContactRecord {
	c := models.ContactRecord{ID: id, GivenName: given, FamilyName: family}
	for _, p := range phones {
		c.Phones = append(c.Phones, models.LabeledValue{Label: "mobile", Value: p})
	}
	for _, e := range emails {
		c.Emails = append(c.Emails, models.LabeledValue{Label: "home", Value: e})
	}
	return c
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "identical", a: "robert", b: "robert", expected: 0},
		{name: "empty left", a: "", b: "abc", expected: 3},
		{name: "empty right", a: "abc", b: "", expected: 3},
		{name: "both empty", a: "", b: "", expected: 0},
		{name: "substitution", a: "kitten", b: "sitten", expected: 1},
		{name: "classic", a: "kitten", b: "sitting", expected: 3},
		{name: "insertion", a: "jon", b: "john", expected: 1},
		{name: "multibyte runes", a: "zoë", b: "zoe", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.expected, Levenshtein(tt.b, tt.a), "distance must be symmetric")
		})
	}
}

func TestLevenshtein_ZeroOnlyForEqual(t *testing.T) {
	words := []string{"", "a", "ab", "ba", "robert", "roberta", "Robert"}
	for _, a := range words {
		for _, b := range words {
			assert.Equal(t, a == b, Levenshtein(a, b) == 0, "%q vs %q", a, b)
		}
	}
}

func TestNamesSimilar(t *testing.T) {
	tests := []struct {
		name     string
		n1, n2   string
		expected bool
	}{
		{name: "empty left", n1: "", n2: "robert", expected: false},
		{name: "empty right", n1: "robert", n2: "", expected: false},
		{name: "equal", n1: "robert smith", n2: "robert smith", expected: true},
		{name: "substring", n1: "robert", n2: "robert jr", expected: true},
		{name: "one typo", n1: "jonathan smith", n2: "jonathon smith", expected: true},
		{name: "two edits short name uses floor of two", n1: "anna", n2: "anne", expected: true},
		{name: "short names never fuzzy", n1: "al", n2: "ed", expected: false},
		{name: "three letters never fuzzy", n1: "bob", n2: "rob", expected: false},
		{name: "too far apart", n1: "robert smith", n2: "alice jones", expected: false},
		{name: "threshold scales with length", n1: "christopher columbus", n2: "kristofer columbus", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NamesSimilar(tt.n1, tt.n2))
			assert.Equal(t, tt.expected, NamesSimilar(tt.n2, tt.n1))
		})
	}
}

func TestMatch_RuleCascade(t *testing.T) {
	tests := []struct {
		name     string
		a, b     models.ContactRecord
		expected Reason
	}{
		{
			name:     "shared phone regardless of names",
			a:        contact("1", "Alice", "Jones", []string{"(555) 123-4567"}, nil),
			b:        contact("2", "Bob", "Stone", []string{"555-123-4567"}, nil),
			expected: ReasonPhone,
		},
		{
			name:     "shared email case insensitive",
			a:        contact("1", "Alice", "", nil, []string{"Alice@Example.com"}),
			b:        contact("2", "", "", nil, []string{" alice@example.COM"}),
			expected: ReasonEmail,
		},
		{
			name:     "phone wins over email",
			a:        contact("1", "", "", []string{"5551234"}, []string{"a@x.com"}),
			b:        contact("2", "", "", []string{"5551234"}, []string{"a@x.com"}),
			expected: ReasonPhone,
		},
		{
			name:     "similar name without shared contact method",
			a:        contact("1", "Robert", "", []string{"111"}, nil),
			b:        contact("2", "Robert", "Jr", []string{"222"}, nil),
			expected: ReasonNone,
		},
		{
			name:     "empty phones never match",
			a:        contact("1", "", "", []string{"n/a"}, nil),
			b:        contact("2", "", "", []string{"unknown"}, nil),
			expected: ReasonNone,
		},
		{
			name:     "empty emails never match",
			a:        contact("1", "", "", nil, []string{"  "}),
			b:        contact("2", "", "", nil, []string{""}),
			expected: ReasonNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Match(tt.a, tt.b))
			assert.Equal(t, tt.expected, Match(tt.b, tt.a))
			assert.Equal(t, tt.expected != ReasonNone, IsDuplicate(tt.a, tt.b))
		})
	}
}

func TestIsDuplicate_RobertVsRobertJr(t *testing.T) {
	a := contact("1", "Robert", "", nil, nil)
	b := contact("2", "Robert", "Jr", nil, nil)

	assert.True(t, NamesSimilar(NewProfile(a).Name, NewProfile(b).Name))
	assert.False(t, IsDuplicate(a, b))
}

func TestIsDuplicate_EmptyRecordNeverMatches(t *testing.T) {
	empty := models.ContactRecord{ID: "empty"}
	others := []models.ContactRecord{
		empty,
		contact("1", "", "", nil, nil),
		contact("2", "Robert", "Smith", []string{"5551234"}, []string{"r@x.com"}),
		{ID: "3", OrganizationName: "Acme"},
	}
	for _, o := range others {
		assert.False(t, IsDuplicate(empty, o), "vs %s", o.ID)
		assert.False(t, IsDuplicate(o, empty), "vs %s", o.ID)
	}
}

func TestIsDuplicate_Symmetric(t *testing.T) {
	records := []models.ContactRecord{
		contact("1", "Robert", "Smith", []string{"555 1234"}, []string{"rob@x.com"}),
		contact("2", "Rob", "Smith", []string{"5551234"}, nil),
		contact("3", "Roberta", "Smyth", nil, []string{"ROB@x.com"}),
		contact("4", "Alice", "", []string{"999"}, nil),
		contact("5", "", "", nil, nil),
		contact("6", "Alice", "Jones", []string{"(999)"}, []string{"alice@y.com"}),
	}
	for _, a := range records {
		for _, b := range records {
			assert.Equal(t, IsDuplicate(a, b), IsDuplicate(b, a), "%s vs %s", a.ID, b.ID)
		}
	}
}

func TestShareAnyContactMethod(t *testing.T) {
	a := contact("1", "", "", []string{"555-0000"}, []string{"x@y.com"})
	b := contact("2", "", "", []string{"5550001"}, []string{"X@Y.com"})
	c := contact("3", "", "", []string{"1"}, []string{"z@y.com"})

	assert.True(t, ShareAnyContactMethod(a, b))
	assert.False(t, ShareAnyContactMethod(a, c))
}
