package merging

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// UnionFields folds the others into target and returns the merged record. Neither target
// nor others are modified.
//
// Phones and emails are keyed by their normalized value; the first occurrence keeps its
// label and original value. Values with no normalized key are deduplicated by their trimmed
// raw text. Addresses are concatenated. Empty scalar fields and the photo take the first
// non-empty value from the others in order.
func UnionFields(target models.ContactRecord, others []models.ContactRecord) models.ContactRecord {
	merged := target.Clone()

	phoneSets := make([][]models.LabeledValue, len(others))
	emailSets := make([][]models.LabeledValue, len(others))
	for i, o := range others {
		phoneSets[i] = o.Phones
		emailSets[i] = o.Emails
	}
	merged.Phones = unionLabeled(target.Phones, phoneSets, normalizers.NormalizePhone)
	merged.Emails = unionLabeled(target.Emails, emailSets, normalizers.NormalizeEmail)

	for _, o := range others {
		merged.PostalAddresses = append(merged.PostalAddresses, o.PostalAddresses...)
	}

	merged.GivenName = fillEmpty(merged.GivenName, others, func(c models.ContactRecord) string { return c.GivenName })
	merged.FamilyName = fillEmpty(merged.FamilyName, others, func(c models.ContactRecord) string { return c.FamilyName })
	merged.OrganizationName = fillEmpty(merged.OrganizationName, others, func(c models.ContactRecord) string { return c.OrganizationName })
	merged.JobTitle = fillEmpty(merged.JobTitle, others, func(c models.ContactRecord) string { return c.JobTitle })

	if len(merged.Photo) == 0 {
		for _, o := range others {
			if len(o.Photo) > 0 {
				merged.Photo = append([]byte(nil), o.Photo...)
				break
			}
		}
	}

	return merged
}

func unionLabeled(own []models.LabeledValue, others [][]models.LabeledValue, normalize func(string) string) []models.LabeledValue {
	seen := make(map[string]struct{})
	seenRaw := make(map[string]struct{})
	var out []models.LabeledValue

	add := func(values []models.LabeledValue) {
		for _, v := range values {
			keys, key := seen, normalize(v.Value)
			if key == "" {
				keys, key = seenRaw, strings.TrimSpace(v.Value)
			}
			if _, ok := keys[key]; ok {
				continue
			}
			keys[key] = struct{}{}
			out = append(out, v)
		}
	}

	add(own)
	for _, values := range others {
		add(values)
	}
	return out
}

func fillEmpty(current string, others []models.ContactRecord, field func(models.ContactRecord) string) string {
	if strings.TrimSpace(current) != "" {
		return current
	}
	for _, o := range others {
		if v := field(o); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return current
}
