// Package heap implements relations (heap tables) on top of the slotted
// page heap files in internal/storage.
package heap

import (
	"errors"

	"github.com/tuannm99/heapdb/internal/storage"
)

// ErrRelation is the schema-level error every relation violation wraps:
// unknown columns, rows that do not fit a block, dropping what cannot be
// dropped. Substrate failures keep their own error kinds.
var ErrRelation = errors.New("relation error")

// Handle addresses one row within one relation.
type Handle struct {
	BlockID  storage.BlockID
	RecordID storage.RecordID
}
