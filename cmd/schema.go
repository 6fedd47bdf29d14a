package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// facet names, as they appear in query strings and lookup responses
const (
	facetCoverage     = "coverage"
	facetSubnational  = "subnational"
	facetStructure    = "structure"
	facetSubstructure = "substructure"
	facetSector       = "sector"
)

var allFacets = []string{facetCoverage, facetSubnational, facetStructure, facetSubstructure, facetSector}

// codeEntry is one value of a schema codelist.  Score is only present
// in the scoring codelists (availability, licenseStatus, listType).
type codeEntry struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Score int    `json:"score,omitempty"`
}

// scoreTable is a scoring codelist plus the category label used in
// quality explanation keys.
type scoreTable struct {
	category string
	entries  map[string]codeEntry
}

func newScoreTable(category string, codes []codeEntry) scoreTable {
	t := scoreTable{
		category: category,
		entries:  make(map[string]codeEntry),
	}

	for _, entry := range codes {
		t.entries[entry.Code] = entry
	}

	return t
}

func (t *scoreTable) lookup(code string) (codeEntry, bool) {
	entry, ok := t.entries[code]
	return entry, ok
}

func (t *scoreTable) title(code string) string {
	return t.entries[code].Title
}

func (t *scoreTable) titles(codes []string) []string {
	var titles []string

	for _, code := range codes {
		if entry, ok := t.entries[code]; ok == true {
			titles = append(titles, entry.Title)
		}
	}

	return titles
}

// registerSchema holds the facet vocabularies and scoring tables for
// one catalogue generation.
type registerSchema struct {
	coverage     []codeEntry
	subnational  map[string][]codeEntry // keyed by coverage code
	structure    []codeEntry            // top-level structure codes only
	substructure map[string][]codeEntry // keyed by parent structure code
	sector       []codeEntry

	availability  scoreTable
	licenseStatus scoreTable
	listType      scoreTable

	titleMaps map[string]map[string]string // facet -> code -> title
}

func (s *registerSchema) vocabulary(facet string) []codeEntry {
	switch facet {
	case facetCoverage:
		return s.coverage
	case facetStructure:
		return s.structure
	case facetSector:
		return s.sector
	}

	return nil
}

func (s *registerSchema) title(facet string, code string) string {
	return s.titleMaps[facet][code]
}

func (s *registerSchema) titlesFor(facet string, codes []string) []string {
	var titles []string

	for _, code := range codes {
		if title := s.title(facet, code); title != "" {
			titles = append(titles, title)
		}
	}

	return titles
}

// schema codelist documents have a fixed envelope but two body shapes:
//
//	{ "codelist": "coverage", "codes": [ {code/title}, ... ] }
//	{ "codelist": "subnationalCoverage", "codes": { "GB": [ ... ], ... } }
//
// so we unmarshal the body as interface{}, then decode whichever shape
// we got into typed entries via mapstructure.
func parseCodelist(data []byte) (string, []codeEntry, map[string][]codeEntry, error) {
	var doc map[string]interface{}

	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, nil, fmt.Errorf("failed to unmarshal codelist document: %s", err.Error())
	}

	name, _ := doc["codelist"].(string)
	if name == "" {
		return "", nil, nil, fmt.Errorf("codelist document is missing its codelist name")
	}

	decode := func(raw interface{}, result interface{}) error {
		cfg := &mapstructure.DecoderConfig{
			Metadata:   nil,
			Result:     result,
			TagName:    "json",
			ZeroFields: true,
		}

		dec, _ := mapstructure.NewDecoder(cfg)

		return dec.Decode(raw)
	}

	switch codes := doc["codes"].(type) {
	case []interface{}:
		var flat []codeEntry
		if err := decode(codes, &flat); err != nil {
			return "", nil, nil, fmt.Errorf("failed to decode codelist [%s]: %s", name, err.Error())
		}
		return name, flat, nil, nil

	case map[string]interface{}:
		keyed := make(map[string][]codeEntry)
		if err := decode(codes, &keyed); err != nil {
			return "", nil, nil, fmt.Errorf("failed to decode keyed codelist [%s]: %s", name, err.Error())
		}
		return name, nil, keyed, nil
	}

	return "", nil, nil, fmt.Errorf("codelist [%s] has an unrecognized codes shape", name)
}

// buildSchema assembles a registerSchema from raw codelist documents
// keyed by file path.  all seven codelists are required.
func buildSchema(docs map[string][]byte) (*registerSchema, error) {
	flat := make(map[string][]codeEntry)
	keyed := make(map[string]map[string][]codeEntry)

	for path, data := range docs {
		name, flatCodes, keyedCodes, err := parseCodelist(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %s", path, err.Error())
		}

		if keyedCodes != nil {
			keyed[name] = keyedCodes
		} else {
			flat[name] = flatCodes
		}
	}

	for _, name := range []string{"coverage", "structure", "sector", "availability", "licenseStatus", "listType"} {
		if len(flat[name]) == 0 {
			return nil, fmt.Errorf("schema is missing the [%s] codelist", name)
		}
	}

	if len(keyed["subnationalCoverage"]) == 0 {
		return nil, fmt.Errorf("schema is missing the [subnationalCoverage] codelist")
	}

	s := registerSchema{
		coverage:      flat["coverage"],
		subnational:   keyed["subnationalCoverage"],
		sector:        flat["sector"],
		availability:  newScoreTable("Data availability", flat["availability"]),
		licenseStatus: newScoreTable("License status", flat["licenseStatus"]),
		listType:      newScoreTable("List type", flat["listType"]),
	}

	s.splitStructure(flat["structure"])
	s.buildTitleMaps(flat["structure"])

	return &s, nil
}

// splitStructure separates the structure codelist into the top-level
// vocabulary and the per-parent substructure vocabularies ("a/b" is a
// substructure of "a").
func (s *registerSchema) splitStructure(codes []codeEntry) {
	s.substructure = make(map[string][]codeEntry)

	for _, entry := range codes {
		parent := strings.SplitN(entry.Code, "/", 2)[0]

		if parent == entry.Code {
			s.structure = append(s.structure, entry)
			continue
		}

		s.substructure[parent] = append(s.substructure[parent], entry)
	}

	for parent := range s.substructure {
		children := s.substructure[parent]
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].Title < children[j].Title
		})
	}
}

func (s *registerSchema) buildTitleMaps(structureCodes []codeEntry) {
	s.titleMaps = make(map[string]map[string]string)

	add := func(facet string, entries []codeEntry) {
		if s.titleMaps[facet] == nil {
			s.titleMaps[facet] = make(map[string]string)
		}

		for _, entry := range entries {
			s.titleMaps[facet][entry.Code] = entry.Title
		}
	}

	add(facetCoverage, s.coverage)
	add(facetSector, s.sector)

	// structure titles cover parents and children alike
	add(facetStructure, structureCodes)
	s.titleMaps[facetSubstructure] = s.titleMaps[facetStructure]

	for _, entries := range s.subnational {
		add(facetSubnational, entries)
	}
}
