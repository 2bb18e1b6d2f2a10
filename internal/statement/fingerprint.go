package statement

import (
	"crypto/sha256"
	"encoding/hex"

	"paycheck/internal/core"
)

// Fingerprint identifies the content of an upload set. Equal sets in the same
// order produce the same fingerprint.
func Fingerprint(batches []core.StatementBatch) string {
	h := sha256.New()
	for _, b := range batches {
		h.Write([]byte(b.FileName))
		h.Write([]byte{0})
		for _, r := range b.Rows {
			h.Write([]byte(r.Date))
			h.Write([]byte{0x1f})
			h.Write([]byte(r.Description))
			h.Write([]byte{0x1f})
			h.Write([]byte(r.Amount))
			h.Write([]byte{0x1e})
		}
		h.Write([]byte{0x1d})
	}
	return hex.EncodeToString(h.Sum(nil))
}
