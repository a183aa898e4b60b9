package merging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func lv(label, value string) models.LabeledValue {
	return models.LabeledValue{Label: label, Value: value}
}

func TestUnionFields_Phones(t *testing.T) {
	target := models.ContactRecord{ID: "t", Phones: []models.LabeledValue{
		lv("mobile", "(555) 123-4567"),
		lv("work", "555.123.4567"),
		lv("home", "555-0000"),
	}}
	others := []models.ContactRecord{
		{ID: "o1", Phones: []models.LabeledValue{lv("other", "5551234567"), lv("fax", "555 9999")}},
		{ID: "o2", Phones: []models.LabeledValue{lv("mobile", "5559999"), lv("pager", "5550001")}},
	}

	merged := UnionFields(target, others)
	assert.Equal(t, []models.LabeledValue{
		lv("mobile", "(555) 123-4567"),
		lv("home", "555-0000"),
		lv("fax", "555 9999"),
		lv("pager", "5550001"),
	}, merged.Phones)
}

func TestUnionFields_EmailsKeepOriginalCasing(t *testing.T) {
	target := models.ContactRecord{ID: "t", Emails: []models.LabeledValue{lv("home", "Ann@Example.com")}}
	others := []models.ContactRecord{
		{ID: "o", Emails: []models.LabeledValue{lv("work", "ann@example.COM"), lv("work", "Ann.Lee@Work.io")}},
	}

	merged := UnionFields(target, others)
	assert.Equal(t, []models.LabeledValue{
		lv("home", "Ann@Example.com"),
		lv("work", "Ann.Lee@Work.io"),
	}, merged.Emails)
}

func TestUnionFields_ValuesWithoutKeyAreKept(t *testing.T) {
	target := models.ContactRecord{ID: "t", Phones: []models.LabeledValue{lv("mobile", "ask reception")}}
	others := []models.ContactRecord{
		{ID: "o", Phones: []models.LabeledValue{lv("work", " ask reception "), lv("home", "n/a")}},
	}

	merged := UnionFields(target, others)
	assert.Equal(t, []models.LabeledValue{
		lv("mobile", "ask reception"),
		lv("home", "n/a"),
	}, merged.Phones)
}

func TestUnionFields_AddressesConcatenated(t *testing.T) {
	home := models.LabeledAddress{Label: "home", Address: models.PostalAddress{Street: "1 Main St", City: "Springfield"}}
	target := models.ContactRecord{ID: "t", PostalAddresses: []models.LabeledAddress{home}}
	others := []models.ContactRecord{
		{ID: "o1", PostalAddresses: []models.LabeledAddress{home}},
		{ID: "o2"},
	}

	merged := UnionFields(target, others)
	assert.Equal(t, []models.LabeledAddress{home, home}, merged.PostalAddresses)
}

func TestUnionFields_ScalarsFillOnlyWhenEmpty(t *testing.T) {
	target := models.ContactRecord{ID: "t", GivenName: "Ann", OrganizationName: "  ", Photo: nil}
	others := []models.ContactRecord{
		{ID: "o1", GivenName: "Annie", JobTitle: ""},
		{ID: "o2", FamilyName: "Lee", OrganizationName: "Acme", JobTitle: "CTO", Photo: []byte{1, 2}},
		{ID: "o3", OrganizationName: "Other", JobTitle: "CEO", Photo: []byte{3}},
	}

	merged := UnionFields(target, others)
	assert.Equal(t, "Ann", merged.GivenName)
	assert.Equal(t, "Lee", merged.FamilyName)
	assert.Equal(t, "Acme", merged.OrganizationName)
	assert.Equal(t, "CTO", merged.JobTitle)
	assert.Equal(t, []byte{1, 2}, merged.Photo)
	assert.Equal(t, "t", merged.ID)
}

func TestUnionFields_TargetPhotoKept(t *testing.T) {
	target := models.ContactRecord{ID: "t", Photo: []byte{9}}
	merged := UnionFields(target, []models.ContactRecord{{ID: "o", Photo: []byte{1}}})
	assert.Equal(t, []byte{9}, merged.Photo)
}

func TestUnionFields_InputsUntouched(t *testing.T) {
	target := models.ContactRecord{ID: "t", Phones: []models.LabeledValue{lv("mobile", "1")}}
	others := []models.ContactRecord{{ID: "o", Phones: []models.LabeledValue{lv("work", "2")}}}
	targetBefore := target.Clone()
	othersBefore := []models.ContactRecord{others[0].Clone()}

	merged := UnionFields(target, others)
	merged.Phones[0].Value = "changed"

	assert.Equal(t, targetBefore, target)
	assert.Equal(t, othersBefore, others)
}
