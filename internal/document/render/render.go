// Package render builds the unsigned profile PDF that the signing protocol
// uploads and has signed.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-pdf/fpdf"

	"servicebook/internal/profile"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
)

// Profiles supplies the canonical snapshot the document is rendered from.
type Profiles interface {
	Fetch(ctx context.Context, officerID id.OfficerID) (profile.Profile, error)
}

type Renderer struct {
	profiles Profiles
}

func New(profiles Profiles) (*Renderer, error) {
	if profiles == nil {
		return nil, errors.New("profile source is required")
	}
	return &Renderer{profiles: profiles}, nil
}

// Render produces the unsigned PDF for the officer's current canonical
// profile under the given document number.
func (r *Renderer) Render(ctx context.Context, officerID id.OfficerID, docNumber id.DocumentNumber) ([]byte, error) {
	p, err := r.profiles.Fetch(ctx, officerID)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Officer Service Book", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Officer Service Book", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Document No: "+docNumber.String(), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Officer: "+officerID.String(), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	r.section(pdf, "Personal Information")
	for _, name := range sortedKeys(p.Personal) {
		r.row(pdf, name, p.Personal[name])
	}

	for _, category := range id.Categories() {
		records := p.Records[category]
		if len(records) == 0 {
			continue
		}
		r.section(pdf, sectionTitle(category))
		for i, rec := range records {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 5, fmt.Sprintf("Entry %d (%s)", i+1, rec.DisplaySource()), "", 1, "L", false, 0, "")
			for _, name := range sortedKeys(rec.Fields) {
				r.row(pdf, name, rec.Fields[name])
			}
			pdf.Ln(2)
		}
	}

	if len(p.Timeline) > 0 {
		r.section(pdf, "Status History")
		for _, event := range p.Timeline {
			r.row(pdf, event.EventTime.Format("2006-01-02"),
				fmt.Sprintf("%s by %s (%s)", event.Action, event.ActorName, event.ActorRole))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "render profile document")
	}
	return buf.Bytes(), nil
}

func (r *Renderer) section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func (r *Renderer) row(pdf *fpdf.Fpdf, name, value string) {
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(60, 5, name, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, value, "", 1, "L", false, 0, "")
}

func sectionTitle(category id.Category) string {
	switch category {
	case id.CategoryAward:
		return "Awards"
	case id.CategoryDisability:
		return "Disabilities"
	case id.CategoryEducation:
		return "Education"
	case id.CategoryService:
		return "Service History"
	case id.CategoryDependent:
		return "Dependents"
	case id.CategoryTraining:
		return "Training"
	}
	return category.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
