package main

import (
	"sync/atomic"
	"time"
)

// register record shape follows the upstream register JSON files.
// optional sections decode to zero values; presence checks happen once
// at load time, not in the scoring path.

type registerAccess struct {
	AvailableOnline       bool     `json:"availableOnline,omitempty"`
	OnlineAccessDetails   string   `json:"onlineAccessDetails,omitempty"`
	PublicDatabase        string   `json:"publicDatabase,omitempty"`
	GuidanceOnLocatingIDs string   `json:"guidanceOnLocatingIds,omitempty"`
	ExampleIdentifiers    string   `json:"exampleIdentifiers,omitempty"`
	Languages             []string `json:"languages,omitempty"`
}

type registerData struct {
	Availability      []string `json:"availability,omitempty"`
	DataAccessDetails string   `json:"dataAccessDetails,omitempty"`
	Features          []string `json:"features,omitempty"`
	LicenseStatus     string   `json:"licenseStatus,omitempty"`
	LicenseDetails    string   `json:"licenseDetails,omitempty"`
}

type registerLinks struct {
	Opencorporates string `json:"opencorporates,omitempty"`
	Wikipedia      string `json:"wikipedia,omitempty"`
}

type registerMeta struct {
	Source      string `json:"source,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

type registerRecord struct {
	Code                string            `json:"code"`
	Name                map[string]string `json:"name"`
	Description         map[string]string `json:"description,omitempty"`
	URL                 string            `json:"url,omitempty"`
	Coverage            []string          `json:"coverage,omitempty"`
	SubnationalCoverage []string          `json:"subnationalCoverage,omitempty"`
	Structure           []string          `json:"structure,omitempty"`
	Sector              []string          `json:"sector,omitempty"`
	ListType            string            `json:"listType,omitempty"`
	Confirmed           bool              `json:"confirmed"`
	Deprecated          bool              `json:"deprecated,omitempty"`
	Access              registerAccess    `json:"access,omitempty"`
	Data                registerData      `json:"data,omitempty"`
	Links               registerLinks     `json:"links,omitempty"`
	Meta                registerMeta      `json:"meta,omitempty"`
	FormerPrefixes      []string          `json:"formerPrefixes,omitempty"`

	// derived at load time, query-independent
	Quality          int            `json:"quality"`
	QualityExplained map[string]int `json:"qualityExplained,omitempty"`
}

const listTypePrimary = "primary"

func (r *registerRecord) displayName() string {
	if name := r.Name["en"]; name != "" {
		return name
	}

	// any language beats nothing for log messages
	for _, name := range r.Name {
		return name
	}

	return r.Code
}

// registerDetail is a record plus display-title expansions of its code
// sets.  built on demand for the detail endpoint; never stored back
// into the catalogue.
type registerDetail struct {
	registerRecord

	CoverageTitles            []string `json:"coverageTitles,omitempty"`
	SubnationalCoverageTitles []string `json:"subnationalCoverageTitles,omitempty"`
	StructureTitles           []string `json:"structureTitles,omitempty"`
	SectorTitles              []string `json:"sectorTitles,omitempty"`
	AvailabilityTitles        []string `json:"availabilityTitles,omitempty"`
	ListTypeTitle             string   `json:"listTypeTitle,omitempty"`
	LicenseStatusTitle        string   `json:"licenseStatusTitle,omitempty"`
}

// catalogueSnapshot is one fully-built generation of the catalogue.
// snapshots are immutable once published; query handlers read whichever
// snapshot is current and never write to it.
type catalogueSnapshot struct {
	registers []registerRecord // confirmed records, load order
	index     map[string]int   // code -> position in registers
	schema    *registerSchema
	ref       string // remote commit ref; empty for local loads
	source    string // "remote" or "local"
	loadedAt  time.Time
}

func (snap *catalogueSnapshot) record(code string) *registerRecord {
	pos, ok := snap.index[code]
	if ok == false {
		return nil
	}

	return &snap.registers[pos]
}

func (snap *catalogueSnapshot) recordDetail(code string) *registerDetail {
	rec := snap.record(code)
	if rec == nil {
		return nil
	}

	detail := registerDetail{registerRecord: *rec}

	detail.CoverageTitles = snap.schema.titlesFor(facetCoverage, rec.Coverage)
	detail.SubnationalCoverageTitles = snap.schema.titlesFor(facetSubnational, rec.SubnationalCoverage)
	detail.StructureTitles = snap.schema.titlesFor(facetStructure, rec.Structure)
	detail.SectorTitles = snap.schema.titlesFor(facetSector, rec.Sector)
	detail.AvailabilityTitles = snap.schema.availability.titles(rec.Data.Availability)
	detail.ListTypeTitle = snap.schema.listType.title(rec.ListType)
	detail.LicenseStatusTitle = snap.schema.licenseStatus.title(rec.Data.LicenseStatus)

	return &detail
}

// exportRecords returns the full confirmed catalogue in load order.
func (snap *catalogueSnapshot) exportRecords() []registerRecord {
	return snap.registers
}

// catalogueStore publishes catalogue snapshots to query handlers.
// readers are lock-free; the only write is the pointer swap performed
// by a completed refresh, so a query always observes either the fully
// old or the fully new generation.
type catalogueStore struct {
	current atomic.Pointer[catalogueSnapshot]
}

func (s *catalogueStore) snapshot() *catalogueSnapshot {
	return s.current.Load()
}

func (s *catalogueStore) swap(next *catalogueSnapshot) {
	s.current.Store(next)
}
