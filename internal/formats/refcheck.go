package formats

import (
	"github.com/concordkit/concord/core/concordance"
	"github.com/concordkit/concord/core/refs"
	"github.com/concordkit/concord/internal/logging"
)

// CheckRefs validates hit references against the structured reference
// convention, logging each unconventional one. It returns the number of
// hits whose reference does not parse. References stay opaque keys
// regardless; the check is advisory and every reader runs it.
func CheckRefs(cnc *concordance.Concordance) int {
	unconventional := 0
	for _, hit := range cnc.Hits {
		if hit.Ref == "" {
			continue
		}
		if _, err := refs.Parse(hit.Ref); err != nil {
			logging.Debug("unconventional reference", "ref", hit.Ref)
			unconventional++
		}
	}
	if unconventional > 0 {
		logging.Info("references not matching the structured convention",
			"hits", unconventional, "total", cnc.Len())
	}
	return unconventional
}
