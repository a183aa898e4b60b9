package models

import "time"

// LabeledValue is a labeled phone number or email address ("mobile", "work", ...)
type LabeledValue struct {
	Label string `json:"label"`
	Value string `json:"value" validate:"required"`
}

// PostalAddress is a structured postal address
type PostalAddress struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// LabeledAddress is a labeled postal address
type LabeledAddress struct {
	Label   string        `json:"label"`
	Address PostalAddress `json:"address"`
}

// ContactRecord is an immutable snapshot of a contact as read from the contact store.
// Detection and merge logic never mutate a record; changes are only applied by the
// store's transaction.
type ContactRecord struct {
	ID               string           `json:"id"`
	GivenName        string           `json:"given_name,omitempty"`
	FamilyName       string           `json:"family_name,omitempty"`
	Phones           []LabeledValue   `json:"phones,omitempty" validate:"dive"`
	Emails           []LabeledValue   `json:"emails,omitempty" validate:"dive"`
	OrganizationName string           `json:"organization_name,omitempty"`
	JobTitle         string           `json:"job_title,omitempty"`
	PostalAddresses  []LabeledAddress `json:"postal_addresses,omitempty"`
	Photo            []byte           `json:"photo,omitempty"`
}

// Clone returns a deep copy of the record so callers can build a new snapshot
// without aliasing the original's slices.
func (c ContactRecord) Clone() ContactRecord {
	out := c
	out.Phones = append([]LabeledValue(nil), c.Phones...)
	out.Emails = append([]LabeledValue(nil), c.Emails...)
	out.PostalAddresses = append([]LabeledAddress(nil), c.PostalAddresses...)
	if c.Photo != nil {
		out.Photo = append([]byte(nil), c.Photo...)
	}
	return out
}

// DuplicateGroup is a cluster of two or more records judged to be the same person.
// Members are ordered by completeness score descending.
type DuplicateGroup struct {
	Key     string          `json:"key"`
	Members []ContactRecord `json:"members"`
	Scores  []int           `json:"scores"`
}

// Size returns the number of members in the group
func (g DuplicateGroup) Size() int {
	return len(g.Members)
}

// MemberIDs returns the member IDs in group order
func (g DuplicateGroup) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// DetectionResult is the outcome of one detection run over a snapshot
type DetectionResult struct {
	Groups      []DuplicateGroup `json:"groups"`
	RecordCount int              `json:"record_count"`
	Strategy    string           `json:"strategy"`
	DetectedAt  time.Time        `json:"detected_at"`
}
