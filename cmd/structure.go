package main

import (
	"strings"
)

// normalizeStructure expands a record's structure codes with the
// top-level codes implied by its hierarchical children: "company/llp"
// implies "company".  this is a single expansion pass over the codes
// present on entry, not a transitive closure; deeper hierarchies only
// gain their first segment.  running it again is a no-op.
func normalizeStructure(rec *registerRecord) {
	if len(rec.Structure) == 0 {
		return
	}

	codes := rec.Structure

	for _, code := range codes {
		parent := strings.SplitN(code, "/", 2)[0]

		if parent == code {
			continue
		}

		if sliceContainsString(rec.Structure, parent, false) == false {
			rec.Structure = append(rec.Structure, parent)
		}
	}
}
