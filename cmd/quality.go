package main

import (
	"fmt"
	"log"
)

const qualityCap = 100

// annotateQuality derives a record's 0-100 quality score from the
// schema scoring tables.  each contribution is recorded in
// QualityExplained under "<Category>: <Title>".
//
// error handling is asymmetric on purpose: unknown availability and
// list-type codes are logged and skipped, but an unknown license
// status fails the record (and with it the refresh pass).  this
// mirrors the upstream behavior exactly; it is quite possibly an
// upstream oversight rather than intent, so do not "fix" it here
// without confirming what the register maintainers expect.
func annotateQuality(rec *registerRecord, schema *registerSchema) error {
	total := 0
	explained := make(map[string]int)

	apply := func(table *scoreTable, entry codeEntry) {
		total += entry.Score
		explained[fmt.Sprintf("%s: %s", table.category, entry.Title)] = entry.Score
	}

	for _, code := range rec.Data.Availability {
		entry, ok := schema.availability.lookup(code)
		if ok == false {
			log.Printf("[QUALITY] %s: unknown availability code [%s]; skipping", rec.Code, code)
			continue
		}

		apply(&schema.availability, entry)
	}

	if rec.Data.LicenseStatus != "" {
		entry, ok := schema.licenseStatus.lookup(rec.Data.LicenseStatus)
		if ok == false {
			return fmt.Errorf("register [%s]: unknown license status code [%s]", rec.Code, rec.Data.LicenseStatus)
		}

		apply(&schema.licenseStatus, entry)
	}

	if rec.ListType != "" {
		entry, ok := schema.listType.lookup(rec.ListType)
		if ok == false {
			log.Printf("[QUALITY] %s: unknown list type [%s]; skipping", rec.Code, rec.ListType)
		} else {
			apply(&schema.listType, entry)
		}
	}

	if total > qualityCap {
		total = qualityCap
	}

	rec.Quality = total
	rec.QualityExplained = explained

	return nil
}
