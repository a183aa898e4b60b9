package contact

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
)

const contactTable = "contacts"

type ContactRow struct {
	TenantID         string                                 `db:"tenant_id"`
	ID               string                                 `db:"id"`
	GivenName        string                                 `db:"given_name"`
	FamilyName       string                                 `db:"family_name"`
	OrganizationName string                                 `db:"organization_name"`
	JobTitle         string                                 `db:"job_title"`
	Phones           database.JSONB[[]models.LabeledValue]   `db:"phones"`
	Emails           database.JSONB[[]models.LabeledValue]   `db:"emails"`
	PostalAddresses  database.JSONB[[]models.LabeledAddress] `db:"postal_addresses"`
	Photo            []byte                                 `db:"photo"`
	Version          int                                    `db:"version"`
	CreatedAt        time.Time                              `db:"created_at"`
	UpdatedAt        time.Time                              `db:"updated_at"`
	DeletedAt        sql.NullTime                           `db:"deleted_at"`
}

var contactStruct = database.NewStruct(new(ContactRow))

// FromContactRecord builds a row for insertion. Nil lists become empty JSON arrays.
func FromContactRecord(tenantID string, c models.ContactRecord, now time.Time) *ContactRow {
	return &ContactRow{
		TenantID:         tenantID,
		ID:               c.ID,
		GivenName:        c.GivenName,
		FamilyName:       c.FamilyName,
		OrganizationName: c.OrganizationName,
		JobTitle:         c.JobTitle,
		Phones:           database.NewJSONB(nonNil(c.Phones)),
		Emails:           database.NewJSONB(nonNil(c.Emails)),
		PostalAddresses:  database.NewJSONB(nonNil(c.PostalAddresses)),
		Photo:            c.Photo,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ToContactRecord converts a row into a snapshot. Empty lists come back as nil.
func ToContactRecord(row *ContactRow) models.ContactRecord {
	return models.ContactRecord{
		ID:               row.ID,
		GivenName:        row.GivenName,
		FamilyName:       row.FamilyName,
		OrganizationName: row.OrganizationName,
		JobTitle:         row.JobTitle,
		Phones:           nilIfEmpty(row.Phones.GetValue()),
		Emails:           nilIfEmpty(row.Emails.GetValue()),
		PostalAddresses:  nilIfEmpty(row.PostalAddresses.GetValue()),
		Photo:            nilIfEmpty(row.Photo),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
