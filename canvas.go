package collabkit

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
)

// CanvasElement is one shape, stroke or note on a whiteboard.
// Data is kept opaque; only the client understands element payloads.
type CanvasElement struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	UpdatedBy string          `json:"updatedBy,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Deleted   bool            `json:"deleted,omitempty"`
}

// MergeElements applies an auto-save batch to the current canvas.
//
// Elements with a known ID replace the stored one, unknown IDs are appended
// and elements flagged deleted are dropped. There is no conflict detection:
// the latest save wins. Elements without an ID are ignored.
func MergeElements(current, incoming []CanvasElement, updatedBy string, at time.Time) []CanvasElement {
	index := make(map[string]int, len(current))
	out := make([]CanvasElement, 0, len(current)+len(incoming))
	for _, el := range current {
		if el.ID == "" {
			continue
		}
		index[el.ID] = len(out)
		out = append(out, el)
	}

	removed := make(map[string]bool)
	for _, el := range incoming {
		if el.ID == "" {
			continue
		}
		if el.Deleted {
			removed[el.ID] = true
			continue
		}
		delete(removed, el.ID)
		el.UpdatedBy = updatedBy
		el.UpdatedAt = at
		if i, ok := index[el.ID]; ok {
			out[i] = el
			continue
		}
		index[el.ID] = len(out)
		out = append(out, el)
	}

	if len(removed) == 0 {
		return out
	}
	return lo.Reject(out, func(el CanvasElement, _ int) bool { return removed[el.ID] })
}
