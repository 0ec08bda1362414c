// Package runid derives deterministic identifiers for scenarios and
// runs. IDs are content hashes, so re-running the same scenario with
// the same seed yields the same IDs and storage writes stay idempotent.
package runid

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// ScenarioID derives a stable ID from the fields that define a
// scenario's outcome. Same inputs always produce the same ID.
func ScenarioID(name, token string, iterations, repetitions int, seed int64) string {
	fields := []string{
		name,
		token,
		fmt.Sprintf("%d", iterations),
		fmt.Sprintf("%d", repetitions),
		fmt.Sprintf("%d", seed),
	}
	return encode(strings.Join(fields, "|"))
}

// RunID derives the ID of one execution of a scenario. StartedAtMs
// distinguishes re-runs of the same scenario.
func RunID(scenarioID string, startedAtMs int64) string {
	return encode(fmt.Sprintf("%s|%d", scenarioID, startedAtMs))
}

// encode hashes s with SHA-256 and base58-encodes the first 16 bytes.
func encode(s string) string {
	h := sha256.Sum256([]byte(s))
	return base58.Encode(h[:16])
}
