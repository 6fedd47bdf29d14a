package main

// facetLookup is one selectable facet value.  Disabled means choosing
// this value next, with the rest of the current selection held, would
// leave zero results; the UI greys these out.
type facetLookup struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Disabled bool   `json:"disabled"`
}

type facetLookups map[string][]facetLookup

// validLookups computes, for each facet, which vocabulary values are
// still reachable from the current selection.  for each facet the
// query is re-run with that one facet masked out, and the facet's
// values are unioned across the survivors; a value is reachable iff it
// appears in that union.  when the union is empty the facet does not
// discriminate at all, so every value stays enabled.
//
// the dependent facets follow their parents: subnational lookups exist
// only once a coverage is selected (the vocabulary is per-country),
// and substructure lookups only once a structure is selected.
// recomputed from scratch per query; nothing is cached.
func validLookups(snap *catalogueSnapshot, q facetQuery) facetLookups {
	lookups := make(facetLookups)

	for _, facet := range []string{facetCoverage, facetStructure, facetSector} {
		lookups[facet] = prunedLookup(snap, q, facet, snap.schema.vocabulary(facet))
	}

	if q.Coverage != "" {
		if vocab := snap.schema.subnational[q.Coverage]; len(vocab) > 0 {
			lookups[facetSubnational] = prunedLookup(snap, q, facetSubnational, vocab)
		}
	}

	if q.Structure != "" {
		if vocab := snap.schema.substructure[q.Structure]; len(vocab) > 0 {
			lookups[facetSubstructure] = prunedLookup(snap, q, facetSubstructure, vocab)
		}
	}

	return lookups
}

func prunedLookup(snap *catalogueSnapshot, q facetQuery, facet string, vocab []codeEntry) []facetLookup {
	masked := q.withFacetCleared(facet)

	reachable := make(map[string]bool)

	for i := range snap.registers {
		rec := &snap.registers[i]

		if matchesQuery(rec, masked) == false {
			continue
		}

		for _, value := range facetValues(rec, facet) {
			reachable[value] = true
		}
	}

	entries := make([]facetLookup, 0, len(vocab))

	for _, entry := range vocab {
		disabled := len(reachable) > 0 && reachable[entry.Code] == false
		entries = append(entries, facetLookup{Code: entry.Code, Title: entry.Title, Disabled: disabled})
	}

	return entries
}

// facetValues returns the record's value set for a facet.  both the
// structure and substructure facets read the structure codes; the
// normalizer has already ensured parents implied by children are
// present.
func facetValues(rec *registerRecord, facet string) []string {
	switch facet {
	case facetCoverage:
		return rec.Coverage
	case facetSubnational:
		return rec.SubnationalCoverage
	case facetStructure, facetSubstructure:
		return rec.Structure
	case facetSector:
		return rec.Sector
	}

	return nil
}
