package main

import (
	"fmt"
)

// relevance bonuses, hand-tuned against the production catalogue.
// these are not a general ranking model; see DESIGN.md before touching.
const (
	matchDropdown          = 10.0 // selected facet value matches the record
	matchDropdownOnlyValue = 10.0 // record has exactly one value for the matched facet
	matchEmpty             = 2.0  // facet unconstrained and record has no value for it
)

// facetQuery is a partial selection over the five facets.  empty string
// means the facet is unconstrained.
type facetQuery struct {
	Coverage     string
	Subnational  string
	Structure    string
	Substructure string
	Sector       string
}

func (q facetQuery) isEmpty() bool {
	return q == facetQuery{}
}

func (q facetQuery) withFacetCleared(facet string) facetQuery {
	masked := q

	switch facet {
	case facetCoverage:
		masked.Coverage = ""
	case facetSubnational:
		masked.Subnational = ""
	case facetStructure:
		masked.Structure = ""
	case facetSubstructure:
		masked.Substructure = ""
	case facetSector:
		masked.Sector = ""
	}

	return masked
}

func (q facetQuery) asMap() map[string]string {
	m := make(map[string]string)

	set := func(facet string, value string) {
		if value != "" {
			m[facet] = value
		}
	}

	set(facetCoverage, q.Coverage)
	set(facetSubnational, q.Subnational)
	set(facetStructure, q.Structure)
	set(facetSubstructure, q.Substructure)
	set(facetSector, q.Sector)

	return m
}

// scoreContribution is one applied bonus.  kept structured so the
// scoring core never deals in display strings; formatting happens at
// the response boundary.
type scoreContribution struct {
	Facet  string
	Label  string
	Points float64
}

func (c scoreContribution) String() string {
	return fmt.Sprintf("%s: %s (+%g)", c.Facet, c.Label, c.Points)
}

// scoredRegister is a per-query copy of a record with its accumulated
// relevance.  never written back to the catalogue.
type scoredRegister struct {
	registerRecord

	Relevance      float64  `json:"relevance"`
	RelevanceDebug []string `json:"relevanceDebug,omitempty"`

	trail []scoreContribution
}

func (r *scoredRegister) addScore(facet string, label string, points float64) {
	r.Relevance += points
	r.trail = append(r.trail, scoreContribution{Facet: facet, Label: label, Points: points})
}

func (r *scoredRegister) sortKey() float64 {
	return r.Relevance*100 + float64(r.Quality)
}

// formatDebug renders the score trail for display, in application order.
func (r *scoredRegister) formatDebug() {
	r.RelevanceDebug = make([]string, 0, len(r.trail))

	for _, c := range r.trail {
		r.RelevanceDebug = append(r.RelevanceDebug, c.String())
	}
}

// matchesQuery is the drop rule: a constrained facet drops the record
// when the record's value set for that facet does not contain the
// selected value (an empty set never contains it).  subnational and
// substructure filter against the record's region and structure sets
// and only apply when selected.
func matchesQuery(rec *registerRecord, q facetQuery) bool {
	if q.Coverage != "" && sliceContainsString(rec.Coverage, q.Coverage, false) == false {
		return false
	}

	if q.Subnational != "" && sliceContainsString(rec.SubnationalCoverage, q.Subnational, false) == false {
		return false
	}

	if q.Structure != "" && sliceContainsString(rec.Structure, q.Structure, false) == false {
		return false
	}

	if q.Substructure != "" && sliceContainsString(rec.Structure, q.Substructure, false) == false {
		return false
	}

	if q.Sector != "" && sliceContainsString(rec.Sector, q.Sector, false) == false {
		return false
	}

	return true
}

// scoreRegister applies the bonus table to one surviving record.
// bonuses are applied in a fixed order (primary list, then coverage,
// subnational, structure, substructure, sector) because the debug
// trail ordering is part of the response contract.
func scoreRegister(rec *registerRecord, q facetQuery) *scoredRegister {
	if matchesQuery(rec, q) == false {
		return nil
	}

	r := &scoredRegister{registerRecord: *rec}

	if rec.ListType == listTypePrimary {
		r.addScore("listType", "primary list", matchDropdown)
	}

	// coverage
	if q.Coverage != "" {
		r.addScore(facetCoverage, "matches selected coverage", matchDropdown)
		if len(rec.Coverage) == 1 {
			r.addScore(facetCoverage, "only coverage value", matchDropdownOnlyValue)
		}
	} else if len(rec.Coverage) == 0 {
		r.addScore(facetCoverage, "no coverage listed", matchEmpty)
	}

	// single-country register with purely national scope
	if len(rec.Coverage) == 1 && q.Subnational == "" && len(rec.SubnationalCoverage) == 0 {
		r.addScore(facetCoverage, "single country, national scope", matchDropdown/2)
	}

	// subnational, only scored when selected
	if q.Subnational != "" {
		r.addScore(facetSubnational, "matches selected region", matchDropdown*2)
		if len(rec.SubnationalCoverage) == 1 {
			r.addScore(facetSubnational, "only region value", matchDropdownOnlyValue)
		}
	}

	// structure
	if q.Structure != "" {
		r.addScore(facetStructure, "matches selected structure", matchDropdown)
		if len(rec.Structure) == 1 {
			r.addScore(facetStructure, "only structure value", matchDropdownOnlyValue)
		}
	} else if len(rec.Structure) == 0 {
		r.addScore(facetStructure, "no structure listed", matchEmpty)
	}

	// substructure, only scored when selected
	if q.Substructure != "" {
		r.addScore(facetSubstructure, "matches selected substructure", matchDropdown*2)
		if len(rec.Structure) == 1 {
			r.addScore(facetSubstructure, "only structure value", matchDropdownOnlyValue)
		}
	}

	// sector
	if q.Sector != "" {
		r.addScore(facetSector, "matches selected sector", matchDropdown*2)
		if len(rec.Sector) == 1 {
			r.addScore(facetSector, "only sector value", matchDropdownOnlyValue*2)
		}
	} else if len(rec.Sector) == 0 {
		r.addScore(facetSector, "no sector listed", matchEmpty)
	}

	return r
}

// scoreAndFilter prunes the catalogue to records matching the query
// and scores each survivor.  pure over the snapshot: every surviving
// record is a fresh copy, and relevance starts from zero each call.
// survivors come back in catalogue load order.
func scoreAndFilter(snap *catalogueSnapshot, q facetQuery) []*scoredRegister {
	var scored []*scoredRegister

	for i := range snap.registers {
		if r := scoreRegister(&snap.registers[i], q); r != nil {
			scored = append(scored, r)
		}
	}

	return scored
}
