package record

import (
	"time"

	id "servicebook/pkg/domain"
)

// CategorySpec describes how one entity category is reconciled: which fields
// identify a record, which field orders the canonical list, and how the
// registry's own field names map onto canonical ones.
//
// The identifying field subsets are category-specific; there is no shared
// formula.
type CategorySpec struct {
	Category id.Category

	// KeyFields compose the equality key used to match a registry candidate
	// against a persisted record, compared case-insensitively with whitespace
	// collapsed.
	KeyFields []string

	// DateField orders the canonical list, descending. Records with a missing
	// or unparseable value sort as the oldest possible.
	DateField string

	// RequiredFields must be non-empty for a save to pass validation and for
	// the category to count as complete.
	RequiredFields []string

	// RegistryFields maps registry payload field names to canonical names.
	// Names absent from the map pass through unchanged.
	RegistryFields map[string]string
}

var categorySpecs = map[id.Category]CategorySpec{
	id.CategoryAward: {
		Category:       id.CategoryAward,
		KeyFields:      []string{"rew_name", "rew_office", "rew_date"},
		DateField:      "rew_date",
		RequiredFields: []string{"rew_name", "rew_office"},
		RegistryFields: map[string]string{
			"nature": "rew_name",
			"office": "rew_office",
			"date":   "rew_date",
		},
	},
	id.CategoryDisability: {
		Category:       id.CategoryDisability,
		KeyFields:      []string{"dis_type", "dis_percentage", "dis_valid_upto", "dis_doc_no"},
		DateField:      "dis_valid_upto",
		RequiredFields: []string{"dis_type", "dis_percentage"},
		RegistryFields: map[string]string{
			"disability_type": "dis_type",
			"percentage":      "dis_percentage",
			"valid_upto":      "dis_valid_upto",
			"document_no":     "dis_doc_no",
		},
	},
	id.CategoryEducation: {
		Category:       id.CategoryEducation,
		KeyFields:      []string{"edu_qualification", "edu_institute", "edu_passing_date"},
		DateField:      "edu_passing_date",
		RequiredFields: []string{"edu_qualification", "edu_institute"},
		RegistryFields: map[string]string{
			"qualification": "edu_qualification",
			"institute":     "edu_institute",
			"passing_date":  "edu_passing_date",
			"grade":         "edu_grade",
		},
	},
	id.CategoryService: {
		Category:       id.CategoryService,
		KeyFields:      []string{"srv_designation", "srv_office", "srv_from_date"},
		DateField:      "srv_from_date",
		RequiredFields: []string{"srv_designation", "srv_office", "srv_from_date"},
		RegistryFields: map[string]string{
			"designation": "srv_designation",
			"office":      "srv_office",
			"from_date":   "srv_from_date",
			"to_date":     "srv_to_date",
		},
	},
	id.CategoryDependent: {
		Category:       id.CategoryDependent,
		KeyFields:      []string{"dep_name", "dep_relation", "dep_dob"},
		DateField:      "dep_dob",
		RequiredFields: []string{"dep_name", "dep_relation"},
		RegistryFields: map[string]string{
			"name":          "dep_name",
			"relation":      "dep_relation",
			"date_of_birth": "dep_dob",
		},
	},
	id.CategoryTraining: {
		Category:       id.CategoryTraining,
		KeyFields:      []string{"trn_name", "trn_institute", "trn_start_date"},
		DateField:      "trn_start_date",
		RequiredFields: []string{"trn_name", "trn_institute"},
		RegistryFields: map[string]string{
			"name":       "trn_name",
			"institute":  "trn_institute",
			"start_date": "trn_start_date",
			"end_date":   "trn_end_date",
		},
	},
}

// Spec returns the reconciliation spec for a category. Unknown categories get
// a zero spec whose empty key matches nothing.
func Spec(c id.Category) CategorySpec {
	return categorySpecs[c]
}

// CanonicalFields renames a registry payload into canonical field names.
// Names absent from the mapping pass through unchanged.
func (s CategorySpec) CanonicalFields(registry map[string]string) map[string]string {
	out := make(map[string]string, len(registry))
	for name, value := range registry {
		if mapped, ok := s.RegistryFields[name]; ok {
			name = mapped
		}
		out[name] = value
	}
	return out
}

// dateLayouts are the formats the registry and officers have been observed to
// supply. Tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006",
}

// ParseDate parses a category date value. The zero time means missing or
// unparseable, which sorts as the oldest possible value.
func ParseDate(s string) time.Time {
	s = Normalize(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
