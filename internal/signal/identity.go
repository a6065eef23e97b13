package signal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fingerprint derives the deterministic 16-hex-char identity of a URL.
// It doubles as the dedup key and the storage document key.
func Fingerprint(url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])[:16]
}

// DeriveDraftID builds the stable draft identity for an (item_id, variant)
// pair. Path separators are replaced because document keys cannot contain them.
func DeriveDraftID(itemID string, variant int) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(itemID)
	return fmt.Sprintf("%s_v%d", safe, variant)
}

// NewRunID generates a unique pipeline run identifier.
func NewRunID() string {
	ts := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("run_%s_%s", ts, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
