package record

// Edit describes one save of a record: the full field set as submitted, the
// names the actor explicitly changed, and the prior state the save replaces.
type Edit struct {
	// Saved is the complete field map as submitted.
	Saved map[string]string
	// Edited names the fields the actor explicitly changed in this save.
	Edited map[string]bool
	// PriorValues and PriorSources describe the record before the save.
	// Both empty for a brand-new record.
	PriorValues  map[string]string
	PriorSources map[string]Source
	// Registry is the registry payload for the matching snapshot entry, in
	// canonical field names. Nil when the record has no registry counterpart.
	Registry map[string]string
	// Actor is the provenance tag for explicitly edited fields: SourceUser
	// for officer saves, SourceApprover for approver saves. Defaults to
	// SourceUser.
	Actor Source
}

// ResolveSources recomputes the provenance tag of every saved field.
//
// Rules, in priority order:
//  1. An explicitly edited field is tagged with the acting source, USER for
//     officer saves and APPROVER for approver saves. The actor's direct input
//     always wins, even when the new value equals the registry value.
//  2. An unedited field whose value exactly equals the registry value is
//     tagged REGISTRY.
//  3. An unedited field whose prior tag was APPROVER and whose value is
//     unchanged stays APPROVER.
//  4. Otherwise the field keeps its prior tag; fields with no prior tag
//     default to USER.
func ResolveSources(edit Edit) map[string]Source {
	actor := edit.Actor
	if actor != SourceApprover {
		actor = SourceUser
	}
	out := make(map[string]Source, len(edit.Saved))
	for name, value := range edit.Saved {
		switch {
		case edit.Edited[name]:
			out[name] = actor
		case registryEquals(edit.Registry, name, value):
			out[name] = SourceRegistry
		case edit.PriorSources[name] == SourceApprover && value == edit.PriorValues[name]:
			out[name] = SourceApprover
		case edit.PriorSources[name] != "":
			out[name] = edit.PriorSources[name]
		default:
			out[name] = SourceUser
		}
	}
	return out
}

func registryEquals(registry map[string]string, name, value string) bool {
	if registry == nil {
		return false
	}
	rv, ok := registry[name]
	return ok && rv == value
}
