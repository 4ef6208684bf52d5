package record

import (
	"strconv"
	"strings"

	id "servicebook/pkg/domain"
)

// Source tags which system last authoritatively supplied a field's value.
type Source string

const (
	// SourceRegistry marks values supplied by the external read-only registry.
	SourceRegistry Source = "registry"
	// SourceUser marks values the officer entered or edited directly.
	SourceUser Source = "user"
	// SourceApprover marks values entered by an administrative approver.
	SourceApprover Source = "approver"
	// SourceMixed is derived at display time when a record's field tags
	// disagree. It is never stored per field.
	SourceMixed Source = "mixed"
)

// Identity is either a stable persisted identifier (once saved) or a synthetic
// identifier scoped to the current reconciliation pass.
type Identity string

const syntheticPrefix = "external_"

// SyntheticIdentity builds the identity of an unsaved registry-only entry from
// its index in the snapshot.
func SyntheticIdentity(index int) Identity {
	return Identity(syntheticPrefix + strconv.Itoa(index))
}

// PersistedIdentity builds the identity of a record saved in the local store.
func PersistedIdentity(storeID int64) Identity {
	return Identity(strconv.FormatInt(storeID, 10))
}

// IsSynthetic reports whether the identity is reconciliation-pass scoped.
func (i Identity) IsSynthetic() bool {
	return strings.HasPrefix(string(i), syntheticPrefix)
}

// StoreID returns the persisted store id, or false for synthetic identities.
func (i Identity) StoreID() (int64, bool) {
	if i.IsSynthetic() {
		return 0, false
	}
	n, err := strconv.ParseInt(string(i), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (i Identity) String() string { return string(i) }

// Record is one instance of an entity category: an award, a disability entry,
// an education entry, a service posting, a dependent or a training entry.
type Record struct {
	Identity  Identity
	Category  id.Category
	Fields    map[string]string
	Sources   map[string]Source
	Persisted bool
}

// DedupKey is the normalized tuple of the category's identifying fields,
// lower-cased and whitespace-collapsed. Within one category no two persisted
// records may share it.
func (r Record) DedupKey() string {
	spec := Spec(r.Category)
	parts := make([]string, 0, len(spec.KeyFields))
	for _, f := range spec.KeyFields {
		parts = append(parts, Normalize(r.Fields[f]))
	}
	return strings.Join(parts, "|")
}

// DisplaySource computes the record's aggregate provenance badge: MIXED
// whenever at least one field's tag differs from the rest. Display only,
// never stored.
func (r Record) DisplaySource() Source {
	var first Source
	for _, s := range r.Sources {
		if first == "" {
			first = s
			continue
		}
		if s != first {
			return SourceMixed
		}
	}
	if first == "" {
		return SourceUser
	}
	return first
}

// HasRegistryField reports whether any field carries REGISTRY provenance.
// Such records are never hard-deleted.
func (r Record) HasRegistryField() bool {
	for _, s := range r.Sources {
		if s == SourceRegistry {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (r Record) Clone() Record {
	out := r
	out.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	out.Sources = make(map[string]Source, len(r.Sources))
	for k, v := range r.Sources {
		out.Sources[k] = v
	}
	return out
}

// Normalize lower-cases and collapses whitespace for dedup-key comparison.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
