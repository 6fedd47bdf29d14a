package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerDoc(code string, extra string) []byte {
	doc := fmt.Sprintf(`{"code":"%s","name":{"en":"%s register"},"confirmed":true%s}`, code, code, extra)
	return []byte(doc)
}

func TestReadDataDir(t *testing.T) {
	schemaDocs, registerDocs, err := readDataDir("../data")
	require.NoError(t, err)

	assert.Len(t, schemaDocs, 7)
	assert.Contains(t, schemaDocs, "schema/coverage.json")
	assert.Contains(t, registerDocs, "registers/GB-COH.json")
}

func TestReadDataDirMissing(t *testing.T) {
	_, _, err := readDataDir("no/such/dir")
	assert.Error(t, err)
}

func TestBuildSnapshotFromLocalData(t *testing.T) {
	schemaDocs, registerDocs, err := readDataDir("../data")
	require.NoError(t, err)

	snap, err := buildSnapshot(schemaDocs, registerDocs, "", "local")
	require.NoError(t, err)

	// the unconfirmed and deprecated entries never make it in
	assert.Nil(t, snap.record("DE-HRB"))
	assert.Nil(t, snap.record("GB-MPR"))
	assert.Len(t, snap.registers, 6)

	coh := snap.record("GB-COH")
	require.NotNil(t, coh)
	assert.Equal(t, qualityCap, coh.Quality)

	oscr := snap.record("GB-SC")
	require.NotNil(t, oscr)
	assert.Equal(t, 60, oscr.Quality)
	assert.Equal(t, []string{"GB-SCT"}, oscr.SubnationalCoverage)
}

func TestBuildSnapshotRecordDetailTitles(t *testing.T) {
	schemaDocs, registerDocs, err := readDataDir("../data")
	require.NoError(t, err)

	snap, err := buildSnapshot(schemaDocs, registerDocs, "", "local")
	require.NoError(t, err)

	detail := snap.recordDetail("GB-CHC")
	require.NotNil(t, detail)

	assert.Equal(t, []string{"United Kingdom"}, detail.CoverageTitles)
	assert.Equal(t, []string{"England", "Wales"}, detail.SubnationalCoverageTitles)
	assert.Equal(t, "Primary register", detail.ListTypeTitle)
	assert.Equal(t, "Openly licensed", detail.LicenseStatusTitle)

	assert.Nil(t, snap.recordDetail("ZZ-NOPE"))
}

func TestBuildSnapshotNormalizesStructure(t *testing.T) {
	registerDocs := map[string][]byte{
		"registers/GB-TST.json": registerDoc("GB-TST", `,"structure":["company/limited"]`),
	}

	snap, err := buildSnapshot(testSchemaDocs(), registerDocs, "", "local")
	require.NoError(t, err)

	rec := snap.record("GB-TST")
	require.NotNil(t, rec)
	assert.ElementsMatch(t, []string{"company/limited", "company"}, rec.Structure)
}

func TestBuildSnapshotDuplicateCode(t *testing.T) {
	registerDocs := map[string][]byte{
		"registers/a/GB-TST.json": registerDoc("GB-TST", ""),
		"registers/b/GB-TST.json": registerDoc("GB-TST", ""),
	}

	_, err := buildSnapshot(testSchemaDocs(), registerDocs, "", "local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestBuildSnapshotBadLicenseFailsPass(t *testing.T) {
	registerDocs := map[string][]byte{
		"registers/GB-TST.json": registerDoc("GB-TST", `,"data":{"licenseStatus":"mystery"}`),
	}

	_, err := buildSnapshot(testSchemaDocs(), registerDocs, "", "local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "license")
}

func TestBuildSnapshotUnknownAvailabilityTolerated(t *testing.T) {
	registerDocs := map[string][]byte{
		"registers/GB-TST.json": registerDoc("GB-TST", `,"data":{"availability":["telepathy"],"licenseStatus":"open"}`),
	}

	snap, err := buildSnapshot(testSchemaDocs(), registerDocs, "", "local")
	require.NoError(t, err)

	rec := snap.record("GB-TST")
	require.NotNil(t, rec)
	assert.Equal(t, 40, rec.Quality)
}

func TestBuildSnapshotMissingFields(t *testing.T) {
	_, err := buildSnapshot(testSchemaDocs(), map[string][]byte{
		"registers/bad.json": []byte(`{"name":{"en":"No code"},"confirmed":true}`),
	}, "", "local")
	assert.Error(t, err)

	_, err = buildSnapshot(testSchemaDocs(), map[string][]byte{
		"registers/bad.json": []byte(`{"code":"GB-TST","confirmed":true}`),
	}, "", "local")
	assert.Error(t, err)
}

func TestBuildSnapshotSkipsUnconfirmed(t *testing.T) {
	registerDocs := map[string][]byte{
		"registers/GB-NEW.json": []byte(`{"code":"GB-NEW","name":{"en":"Candidate"},"confirmed":false}`),
		"registers/GB-OLD.json": []byte(`{"code":"GB-OLD","name":{"en":"Superseded"},"confirmed":true,"deprecated":true}`),
		"registers/GB-TST.json": registerDoc("GB-TST", ""),
	}

	snap, err := buildSnapshot(testSchemaDocs(), registerDocs, "", "local")
	require.NoError(t, err)

	assert.Len(t, snap.registers, 1)
	assert.NotNil(t, snap.record("GB-TST"))
}

func TestBuildSnapshotLoadOrderDeterministic(t *testing.T) {
	registerDocs := map[string][]byte{
		"registers/b.json": registerDoc("GB-B", ""),
		"registers/a.json": registerDoc("GB-A", ""),
		"registers/c.json": registerDoc("GB-C", ""),
	}

	snap, err := buildSnapshot(testSchemaDocs(), registerDocs, "", "local")
	require.NoError(t, err)

	require.Len(t, snap.registers, 3)
	assert.Equal(t, "GB-A", snap.registers[0].Code)
	assert.Equal(t, "GB-B", snap.registers[1].Code)
	assert.Equal(t, "GB-C", snap.registers[2].Code)
}

func TestDataFileKind(t *testing.T) {
	assert.Equal(t, "schema", dataFileKind("schema/coverage.json"))
	assert.Equal(t, "register", dataFileKind("registers/GB-COH.json"))
	assert.Equal(t, "register", dataFileKind("registers/sub/GB-COH.json"))
	assert.Equal(t, "", dataFileKind("schema/notes.txt"))
	assert.Equal(t, "", dataFileKind("README.json"))
}

func TestStripArchiveRoot(t *testing.T) {
	assert.Equal(t, "schema/coverage.json", stripArchiveRoot("register-data-abc123/schema/coverage.json"))
	assert.Equal(t, "plain.json", stripArchiveRoot("plain.json"))
}
