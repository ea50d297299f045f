package facility

import (
	"regexp"
	"sort"
	"strings"
)

var aliasStrip = regexp.MustCompile(`[\s_-]+`)

// NormalizeKey lowercases s and drops whitespace, underscores and hyphens,
// so "Badminton Court", "badminton_court" and "BADMINTON-COURT" collide.
func NormalizeKey(s string) string {
	return aliasStrip.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// AliasTable is a validated two-way mapping between alias keys and facilities.
// It is immutable once built.
type AliasTable struct {
	byKey      map[string]int64
	byID       map[int64][]string
	facilities map[int64]*Facility
}

// DroppedAlias records an alias that could not be bound to a facility.
type DroppedAlias struct {
	Alias  string
	Target string
	Reason string
}

// BuildAliasTable binds every facility's own name plus the given alias→name
// pairs. Aliases naming an unknown facility, or clashing with another
// facility's key, are dropped and reported.
func BuildAliasTable(facilities []*Facility, aliases map[string]string) (*AliasTable, []DroppedAlias) {
	t := &AliasTable{
		byKey:      make(map[string]int64),
		byID:       make(map[int64][]string),
		facilities: make(map[int64]*Facility, len(facilities)),
	}

	for _, f := range facilities {
		t.facilities[f.ID] = f
		t.bind(NormalizeKey(f.Name), f.ID)
	}

	// deterministic order so clashes resolve the same way on every start
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dropped []DroppedAlias
	for _, alias := range keys {
		target := aliases[alias]
		key := NormalizeKey(alias)
		if key == "" {
			dropped = append(dropped, DroppedAlias{Alias: alias, Target: target, Reason: "empty alias"})
			continue
		}

		id, ok := t.byKey[NormalizeKey(target)]
		if !ok {
			dropped = append(dropped, DroppedAlias{Alias: alias, Target: target, Reason: "unknown facility"})
			continue
		}
		if existing, taken := t.byKey[key]; taken {
			if existing != id {
				dropped = append(dropped, DroppedAlias{Alias: alias, Target: target, Reason: "alias already bound"})
			}
			continue
		}
		t.bind(key, id)
	}

	for id := range t.byID {
		sort.Strings(t.byID[id])
	}
	return t, dropped
}

func (t *AliasTable) bind(key string, id int64) {
	t.byKey[key] = id
	t.byID[id] = append(t.byID[id], key)
}

// Lookup resolves an alias (in any spelling NormalizeKey accepts) to a facility.
func (t *AliasTable) Lookup(alias string) (*Facility, bool) {
	id, ok := t.byKey[NormalizeKey(alias)]
	if !ok {
		return nil, false
	}
	return t.facilities[id], true
}

// AliasesFor returns the normalised keys bound to id, sorted.
func (t *AliasTable) AliasesFor(id int64) []string {
	return append([]string(nil), t.byID[id]...)
}

// Facilities returns the facilities the table was built from, ordered by id.
func (t *AliasTable) Facilities() []*Facility {
	out := make([]*Facility, 0, len(t.facilities))
	for _, f := range t.facilities {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
