package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// refresh outcomes
const (
	refreshLoaded  = "loaded"
	refreshSkipped = "skipped"
	refreshFailed  = "failed"
)

type refreshOutcome struct {
	Status    string `json:"status"`              // loaded, skipped, failed
	Source    string `json:"source,omitempty"`    // remote or local
	Ref       string `json:"ref,omitempty"`       // remote commit ref, when known
	Reason    string `json:"reason,omitempty"`    // for skipped/failed
	Registers int    `json:"registers,omitempty"` // confirmed records loaded
}

// catalogueLoader builds catalogue snapshots from the remote register
// archive, falling back to the local on-disk copy when the remote is
// unreachable or unparseable.
type catalogueLoader struct {
	client     *http.Client
	refURL     string
	archiveURL string
	localDir   string
}

// load produces the next catalogue snapshot.  currentRef short-circuits
// the refresh when the remote has not moved.  a nil snapshot with a
// non-failed outcome means "nothing to do"; the caller keeps whatever
// generation is live.
func (l *catalogueLoader) load(currentRef string) (*catalogueSnapshot, refreshOutcome) {
	snap, outcome := l.loadRemote(currentRef)
	if snap != nil || outcome.Status == refreshSkipped {
		return snap, outcome
	}

	log.Printf("[LOAD] remote load failed (%s); falling back to local copy", outcome.Reason)

	return l.loadLocal()
}

func (l *catalogueLoader) loadRemote(currentRef string) (*catalogueSnapshot, refreshOutcome) {
	ref, err := l.fetchRef()
	if err != nil {
		return nil, refreshOutcome{Status: refreshFailed, Source: "remote", Reason: err.Error()}
	}

	if ref != "" && ref == currentRef {
		log.Printf("[LOAD] remote ref [%s] unchanged; no update needed", ref)
		return nil, refreshOutcome{Status: refreshSkipped, Ref: ref, Reason: "no update needed"}
	}

	schemaDocs, registerDocs, err := l.fetchArchive()
	if err != nil {
		return nil, refreshOutcome{Status: refreshFailed, Source: "remote", Reason: err.Error()}
	}

	snap, err := buildSnapshot(schemaDocs, registerDocs, ref, "remote")
	if err != nil {
		return nil, refreshOutcome{Status: refreshFailed, Source: "remote", Reason: err.Error()}
	}

	return snap, refreshOutcome{Status: refreshLoaded, Source: "remote", Ref: ref, Registers: len(snap.registers)}
}

func (l *catalogueLoader) loadLocal() (*catalogueSnapshot, refreshOutcome) {
	schemaDocs, registerDocs, err := readDataDir(l.localDir)
	if err != nil {
		return nil, refreshOutcome{Status: refreshFailed, Source: "local", Reason: err.Error()}
	}

	snap, err := buildSnapshot(schemaDocs, registerDocs, "", "local")
	if err != nil {
		return nil, refreshOutcome{Status: refreshFailed, Source: "local", Reason: err.Error()}
	}

	return snap, refreshOutcome{Status: refreshLoaded, Source: "local", Registers: len(snap.registers)}
}

// fetchRef asks the upstream for its latest commit ref.  the endpoint
// answers github-style: { "sha": "..." }.
func (l *catalogueLoader) fetchRef() (string, error) {
	body, elapsedMS, err := l.get(l.refURL)
	if err != nil {
		return "", err
	}

	var payload struct {
		SHA string `json:"sha"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[LOAD] ref decode failed: %s", err.Error())
		return "", fmt.Errorf("failed to decode ref response from %s", l.refURL)
	}

	if payload.SHA == "" {
		return "", fmt.Errorf("ref response from %s contained no sha", l.refURL)
	}

	log.Printf("[LOAD] remote ref: [%s] (%d ms)", payload.SHA, elapsedMS)

	return payload.SHA, nil
}

// fetchArchive downloads the register archive and extracts the schema
// codelists and register records.  the archive is a zip whose single
// top-level directory (a github archive convention) is ignored.
func (l *catalogueLoader) fetchArchive() (map[string][]byte, map[string][]byte, error) {
	body, elapsedMS, err := l.get(l.archiveURL)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[LOAD] archive: %d bytes (%d ms)", len(body), elapsedMS)

	reader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		log.Printf("[LOAD] zip open failed: %s", err.Error())
		return nil, nil, fmt.Errorf("failed to open archive from %s", l.archiveURL)
	}

	schemaDocs := make(map[string][]byte)
	registerDocs := make(map[string][]byte)

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		name := stripArchiveRoot(file.Name)

		kind := dataFileKind(name)
		if kind == "" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open archive entry [%s]: %s", file.Name, err.Error())
		}

		data, err := io.ReadAll(rc)
		rc.Close()

		if err != nil {
			return nil, nil, fmt.Errorf("failed to read archive entry [%s]: %s", file.Name, err.Error())
		}

		switch kind {
		case "schema":
			schemaDocs[name] = data
		case "register":
			registerDocs[name] = data
		}
	}

	return schemaDocs, registerDocs, nil
}

func (l *catalogueLoader) get(url string) ([]byte, int64, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		log.Printf("[LOAD] NewRequest() failed: %s", err.Error())
		return nil, 0, fmt.Errorf("failed to create request for %s", url)
	}

	start := time.Now()
	res, err := l.client.Do(req)
	elapsedMS := int64(time.Since(start) / time.Millisecond)

	if err != nil {
		log.Printf("[LOAD] client.Do() failed: %s", err.Error())
		return nil, elapsedMS, fmt.Errorf("failed to fetch %s", url)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, elapsedMS, fmt.Errorf("unexpected status %d from %s", res.StatusCode, url)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		log.Printf("[LOAD] body read failed: %s", err.Error())
		return nil, elapsedMS, fmt.Errorf("failed to read response from %s", url)
	}

	return body, elapsedMS, nil
}

// readDataDir loads schema and register documents from a local data
// directory laid out as schema/*.json and registers/**/*.json.
func readDataDir(dir string) (map[string][]byte, map[string][]byte, error) {
	schemaDocs := make(map[string][]byte)
	registerDocs := make(map[string][]byte)

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		kind := dataFileKind(rel)
		if kind == "" {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		switch kind {
		case "schema":
			schemaDocs[rel] = data
		case "register":
			registerDocs[rel] = data
		}

		return nil
	})

	if err != nil {
		return nil, nil, fmt.Errorf("failed to read data directory %s: %s", dir, err.Error())
	}

	return schemaDocs, registerDocs, nil
}

func stripArchiveRoot(name string) string {
	parts := strings.SplitN(name, "/", 2)

	if len(parts) == 2 {
		return parts[1]
	}

	return name
}

func dataFileKind(name string) string {
	if path.Ext(name) != ".json" {
		return ""
	}

	switch {
	case strings.HasPrefix(name, "schema/"):
		return "schema"
	case strings.HasPrefix(name, "registers/"):
		return "register"
	}

	return ""
}

// buildSnapshot assembles a complete catalogue generation: parse the
// schema, parse and vet every register record, normalize structures,
// annotate quality.  any error abandons the build; the previous
// generation stays live untouched.
func buildSnapshot(schemaDocs map[string][]byte, registerDocs map[string][]byte, ref string, source string) (*catalogueSnapshot, error) {
	schema, err := buildSchema(schemaDocs)
	if err != nil {
		return nil, err
	}

	snap := catalogueSnapshot{
		schema:   schema,
		ref:      ref,
		source:   source,
		loadedAt: time.Now(),
		index:    make(map[string]int),
	}

	// deterministic load order regardless of source
	for _, name := range sortedKeys(registerDocs) {
		var rec registerRecord

		dec := json.NewDecoder(bytes.NewReader(registerDocs[name]))

		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode register file [%s]: %s", name, err.Error())
		}

		if rec.Code == "" {
			return nil, fmt.Errorf("register file [%s] has no code", name)
		}

		if rec.Name["en"] == "" {
			return nil, fmt.Errorf("register [%s] has no English name", rec.Code)
		}

		// unconfirmed and deprecated registers never enter the catalogue
		if rec.Confirmed == false || rec.Deprecated == true {
			log.Printf("[LOAD] skipping %s (%s): confirmed=%v deprecated=%v", rec.Code, rec.displayName(), rec.Confirmed, rec.Deprecated)
			continue
		}

		if _, exists := snap.index[rec.Code]; exists == true {
			return nil, fmt.Errorf("duplicate register code [%s] in file [%s]", rec.Code, name)
		}

		normalizeStructure(&rec)

		if err := annotateQuality(&rec, schema); err != nil {
			return nil, err
		}

		snap.index[rec.Code] = len(snap.registers)
		snap.registers = append(snap.registers, rec)
	}

	log.Printf("[LOAD] built %s catalogue: %d registers", source, len(snap.registers))

	return &snap, nil
}
