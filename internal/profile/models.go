// Package profile assembles the composite officer profile: personal data from
// the registry, one reconciled record list per entity category, and the
// status timeline. The completion percentage computed here gates submission.
package profile

import (
	"servicebook/internal/record"
	"servicebook/internal/workflow"
	id "servicebook/pkg/domain"
)

// Profile is the composite view of one officer.
type Profile struct {
	OfficerID     id.OfficerID
	Personal      map[string]string
	Records       map[id.Category][]record.Record
	Timeline      workflow.Timeline
	Status        workflow.Status
	ConsentLocked bool
	Completion    int
}

// personalRequired are the personal fields that must be present for the
// personal section to count as complete.
var personalRequired = []string{"name", "designation", "date_of_joining"}

// Completeness walks the personal section and every category section and
// returns the completion percentage, 0 to 100. A category with no records is
// complete; a category holding a record with a missing required field is not.
func Completeness(personal map[string]string, records map[id.Category][]record.Record) int {
	sections := 1 + len(id.Categories())
	complete := 0

	if personalComplete(personal) {
		complete++
	}
	for _, category := range id.Categories() {
		if categoryComplete(category, records[category]) {
			complete++
		}
	}
	return complete * 100 / sections
}

func personalComplete(personal map[string]string) bool {
	for _, name := range personalRequired {
		if record.Normalize(personal[name]) == "" {
			return false
		}
	}
	return true
}

func categoryComplete(category id.Category, records []record.Record) bool {
	required := record.Spec(category).RequiredFields
	for _, rec := range records {
		for _, name := range required {
			if record.Normalize(rec.Fields[name]) == "" {
				return false
			}
		}
	}
	return true
}
