package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchemaDocs() map[string][]byte {
	return map[string][]byte{
		"schema/coverage.json":            []byte(`{"codelist":"coverage","codes":[{"code":"GB","title":"United Kingdom"},{"code":"US","title":"United States"}]}`),
		"schema/subnationalCoverage.json": []byte(`{"codelist":"subnationalCoverage","codes":{"GB":[{"code":"GB-SCT","title":"Scotland"},{"code":"GB-ENG","title":"England"}]}}`),
		"schema/structure.json":           []byte(`{"codelist":"structure","codes":[{"code":"company","title":"Company"},{"code":"company/limited","title":"Limited company"},{"code":"charity","title":"Charity"}]}`),
		"schema/sector.json":              []byte(`{"codelist":"sector","codes":[{"code":"all","title":"All sectors"},{"code":"education","title":"Education"}]}`),
		"schema/availability.json":        []byte(`{"codelist":"availability","codes":[{"code":"bulk","title":"Bulk download","score":30},{"code":"api","title":"API access","score":20},{"code":"search","title":"Online search","score":10}]}`),
		"schema/licenseStatus.json":       []byte(`{"codelist":"licenseStatus","codes":[{"code":"open","title":"Openly licensed","score":40},{"code":"closed","title":"Closed","score":0}]}`),
		"schema/listType.json":            []byte(`{"codelist":"listType","codes":[{"code":"primary","title":"Primary register","score":30},{"code":"secondary","title":"Secondary register","score":15}]}`),
	}
}

func testSchema(t *testing.T) *registerSchema {
	t.Helper()

	schema, err := buildSchema(testSchemaDocs())
	require.NoError(t, err)

	return schema
}

func TestAnnotateQualitySums(t *testing.T) {
	schema := testSchema(t)

	rec := registerRecord{
		Code:     "GB-TST",
		ListType: "secondary",
		Data: registerData{
			Availability:  []string{"api", "search"},
			LicenseStatus: "open",
		},
	}

	err := annotateQuality(&rec, schema)
	require.NoError(t, err)

	assert.Equal(t, 85, rec.Quality)
	assert.Equal(t, 20, rec.QualityExplained["Data availability: API access"])
	assert.Equal(t, 10, rec.QualityExplained["Data availability: Online search"])
	assert.Equal(t, 40, rec.QualityExplained["License status: Openly licensed"])
	assert.Equal(t, 15, rec.QualityExplained["List type: Secondary register"])
}

func TestAnnotateQualityCapped(t *testing.T) {
	schema := testSchema(t)

	rec := registerRecord{
		Code:     "GB-TST",
		ListType: "primary",
		Data: registerData{
			Availability:  []string{"bulk", "api", "search"},
			LicenseStatus: "open",
		},
	}

	err := annotateQuality(&rec, schema)
	require.NoError(t, err)

	// 30+20+10+40+30 = 130, capped
	assert.Equal(t, qualityCap, rec.Quality)
}

func TestAnnotateQualityUnknownAvailabilitySkipped(t *testing.T) {
	schema := testSchema(t)

	rec := registerRecord{
		Code: "GB-TST",
		Data: registerData{
			Availability:  []string{"bulk", "telepathy"},
			LicenseStatus: "open",
		},
	}

	err := annotateQuality(&rec, schema)
	require.NoError(t, err)

	assert.Equal(t, 70, rec.Quality)
	assert.NotContains(t, rec.QualityExplained, "Data availability: telepathy")
}

func TestAnnotateQualityUnknownListTypeSkipped(t *testing.T) {
	schema := testSchema(t)

	rec := registerRecord{
		Code:     "GB-TST",
		ListType: "imaginary",
		Data: registerData{
			LicenseStatus: "open",
		},
	}

	err := annotateQuality(&rec, schema)
	require.NoError(t, err)

	assert.Equal(t, 40, rec.Quality)
}

func TestAnnotateQualityUnknownLicenseFails(t *testing.T) {
	schema := testSchema(t)

	rec := registerRecord{
		Code: "GB-TST",
		Data: registerData{
			LicenseStatus: "mystery",
		},
	}

	err := annotateQuality(&rec, schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GB-TST")
	assert.Contains(t, err.Error(), "mystery")
}

func TestAnnotateQualityNoScoringFields(t *testing.T) {
	schema := testSchema(t)

	rec := registerRecord{Code: "GB-TST"}

	err := annotateQuality(&rec, schema)
	require.NoError(t, err)

	assert.Equal(t, 0, rec.Quality)
	assert.Empty(t, rec.QualityExplained)
}
