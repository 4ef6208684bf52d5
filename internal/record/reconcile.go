package record

import (
	"sort"

	"github.com/samber/lo"

	id "servicebook/pkg/domain"
)

// RawExternal is one registry snapshot entry, keyed by the registry's own
// field names.
type RawExternal struct {
	Fields map[string]string
}

// RawPersisted is one locally stored record. The store groups a record's
// fields by the system that supplied them; flattening reconstructs a single
// field/provenance view.
type RawPersisted struct {
	Identity       Identity
	FieldsBySource map[Source]map[string]string
}

// flattenOrder fixes which namespace wins when the store holds the same field
// under several sources. Officer and approver entries overlay the snapshot.
var flattenOrder = []Source{SourceRegistry, SourceUser, SourceApprover}

// Reconcile merges a registry snapshot with the persisted records of one
// entity category into a single canonical, deduplicated list.
//
// The merge is idempotent: feeding the canonical list back in as both inputs
// reproduces it, because every record's equality key already matches itself.
func Reconcile(category id.Category, snapshot []RawExternal, persisted []RawPersisted) []Record {
	spec := Spec(category)

	// Registry entries become unsaved candidates. Fields the registry actually
	// populated are tagged REGISTRY; fields it left empty are tagged USER so
	// they stay editable without a false provenance badge.
	candidates := make([]Record, 0, len(snapshot))
	for i, raw := range snapshot {
		rec := Record{
			Identity: SyntheticIdentity(i),
			Category: category,
			Fields:   spec.CanonicalFields(raw.Fields),
			Sources:  make(map[string]Source, len(raw.Fields)),
		}
		for name, value := range rec.Fields {
			if value == "" {
				rec.Sources[name] = SourceUser
			} else {
				rec.Sources[name] = SourceRegistry
			}
		}
		candidates = append(candidates, rec)
	}

	locals := make([]Record, 0, len(persisted))
	for _, raw := range persisted {
		locals = append(locals, flatten(category, raw))
	}

	// Match each persisted record against the first unmatched candidate with
	// the same equality key. The candidate takes the persisted identity, and
	// locally supplied fields overlay the snapshot so an officer's or
	// approver's entry is never shown with registry provenance.
	matchedLocal := make([]bool, len(locals))
	matchedCandidate := make([]bool, len(candidates))
	for li, local := range locals {
		key := local.DedupKey()
		for ci := range candidates {
			if matchedCandidate[ci] || candidates[ci].DedupKey() != key {
				continue
			}
			candidates[ci].Identity = local.Identity
			candidates[ci].Persisted = !local.Identity.IsSynthetic()
			for name, value := range local.Fields {
				src := local.Sources[name]
				_, known := candidates[ci].Fields[name]
				if !known || src != SourceRegistry {
					candidates[ci].Fields[name] = value
					candidates[ci].Sources[name] = src
				}
			}
			matchedCandidate[ci] = true
			matchedLocal[li] = true
			break
		}
	}

	// Canonical order before sorting: matched candidates, then unmatched
	// candidates, then pure local additions.
	canonical := make([]Record, 0, len(candidates)+len(locals))
	for ci, candidate := range candidates {
		if matchedCandidate[ci] {
			canonical = append(canonical, candidate)
		}
	}
	for ci, candidate := range candidates {
		if !matchedCandidate[ci] {
			canonical = append(canonical, candidate)
		}
	}
	for li, local := range locals {
		if !matchedLocal[li] {
			canonical = append(canonical, local)
		}
	}
	canonical = lo.UniqBy(canonical, func(r Record) Identity { return r.Identity })

	sort.SliceStable(canonical, func(a, b int) bool {
		ta := ParseDate(canonical[a].Fields[spec.DateField])
		tb := ParseDate(canonical[b].Fields[spec.DateField])
		return ta.After(tb)
	})
	return canonical
}

// flatten collapses a persisted record's per-source field maps into one
// field/provenance pair.
func flatten(category id.Category, raw RawPersisted) Record {
	rec := Record{
		Identity:  raw.Identity,
		Category:  category,
		Fields:    make(map[string]string),
		Sources:   make(map[string]Source),
		Persisted: !raw.Identity.IsSynthetic(),
	}
	for _, src := range flattenOrder {
		for name, value := range raw.FieldsBySource[src] {
			rec.Fields[name] = value
			rec.Sources[name] = src
		}
	}
	return rec
}

// AsExternal re-expresses a canonical record as a registry snapshot entry.
// Used by the idempotence property and by callers replaying canonical output.
func (r Record) AsExternal() RawExternal {
	fields := make(map[string]string, len(r.Fields))
	for name, value := range r.Fields {
		fields[name] = value
	}
	return RawExternal{Fields: fields}
}

// AsPersisted re-expresses a canonical record in the store's source-namespaced
// layout.
func (r Record) AsPersisted() RawPersisted {
	bySource := make(map[Source]map[string]string)
	for name, value := range r.Fields {
		src := r.Sources[name]
		if bySource[src] == nil {
			bySource[src] = make(map[string]string)
		}
		bySource[src][name] = value
	}
	return RawPersisted{Identity: r.Identity, FieldsBySource: bySource}
}
