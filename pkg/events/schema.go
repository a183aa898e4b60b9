package events

import "github.com/Ramsey-B/clover/pkg/models"

const (
	EventContactsMerged     = "contact.merged"
	EventDuplicatesDetected = "duplicates.detected"
)

// ContactsMergedData is the payload of a contact.merged event
type ContactsMergedData struct {
	Target     models.ContactRecord `json:"target"`
	DeletedIDs []string             `json:"deleted_ids"`
	States     []models.MergeState  `json:"states"`
}

// DuplicatesDetectedData is the payload of a duplicates.detected event.
// Members and scores share an order, best member first.
type DuplicatesDetectedData struct {
	Size      int      `json:"size"`
	MemberIDs []string `json:"member_ids"`
	Scores    []int    `json:"scores"`
}

// NewContactsMergedData builds the payload for a committed merge
func NewContactsMergedData(result *models.MergeResult) ContactsMergedData {
	return ContactsMergedData{
		Target:     result.Target,
		DeletedIDs: result.DeletedIDs,
		States:     result.States,
	}
}

// NewDuplicatesDetectedData builds the payload for one group
func NewDuplicatesDetectedData(group models.DuplicateGroup) DuplicatesDetectedData {
	return DuplicatesDetectedData{
		Size:      group.Size(),
		MemberIDs: group.MemberIDs(),
		Scores:    group.Scores,
	}
}
