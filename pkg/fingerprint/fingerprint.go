package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// GroupKey creates a deterministic fingerprint for a set of record IDs.
// The key is a SHA256 hash of the canonical (sorted) JSON array of IDs, so the same
// members produce the same key regardless of their order in the group.
func GroupKey(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	canonical, _ := json.Marshal(sorted)
	hash := sha256.Sum256(canonical)
	return hex.EncodeToString(hash[:])
}
