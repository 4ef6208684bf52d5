package domain

import dErrors "servicebook/pkg/domain-errors"

// Category names one entity category of a service book. Every record belongs
// to exactly one category, and reconciliation runs per category.
type Category string

const (
	CategoryAward      Category = "award"
	CategoryDisability Category = "disability"
	CategoryEducation  Category = "education"
	CategoryService    Category = "service"
	CategoryDependent  Category = "dependent"
	CategoryTraining   Category = "training"
)

// validCategories is the single source of truth for supported categories.
var validCategories = map[Category]bool{
	CategoryAward:      true,
	CategoryDisability: true,
	CategoryEducation:  true,
	CategoryService:    true,
	CategoryDependent:  true,
	CategoryTraining:   true,
}

// Categories lists all supported categories in profile display order.
func Categories() []Category {
	return []Category{
		CategoryService,
		CategoryEducation,
		CategoryTraining,
		CategoryAward,
		CategoryDisability,
		CategoryDependent,
	}
}

// ParseCategory constructs a Category from external input.
//
// Errors: returns CodeValidation when the value is empty or unsupported.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "category cannot be empty")
	}
	c := Category(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid category: "+s)
	}
	return c, nil
}

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}
