package render

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"servicebook/internal/profile"
	"servicebook/internal/record"
	"servicebook/internal/workflow"
	id "servicebook/pkg/domain"
)

type staticProfiles struct {
	profile profile.Profile
}

func (s staticProfiles) Fetch(_ context.Context, _ id.OfficerID) (profile.Profile, error) {
	return s.profile, nil
}

func TestRenderProducesPDF(t *testing.T) {
	officerID := id.OfficerID(uuid.New())
	p := profile.Profile{
		OfficerID: officerID,
		Personal:  map[string]string{"name": "A Sharma", "designation": "Inspector", "date_of_joining": "2010-06-01"},
		Records: map[id.Category][]record.Record{
			id.CategoryAward: {{
				Identity: record.PersistedIdentity(10),
				Category: id.CategoryAward,
				Fields:   map[string]string{"rew_name": "Gallantry Medal", "rew_office": "District Office"},
				Sources: map[string]record.Source{
					"rew_name":   record.SourceRegistry,
					"rew_office": record.SourceRegistry,
				},
				Persisted: true,
			}},
		},
		Timeline: workflow.Timeline{{
			Action:    workflow.ActionSubmit,
			ActorRole: id.RoleOfficer,
			ActorName: "A Sharma",
			EventTime: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		}},
	}

	renderer, err := New(staticProfiles{profile: p})
	require.NoError(t, err)

	content, err := renderer.Render(context.Background(), officerID, "SB-20260115-0abc12de34f5")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, []byte("%PDF")))
	require.Greater(t, len(content), 500)
}
