// Package permutation builds the set of name permutations for a batch run and
// tracks their per-item generation state.
package permutation

// Status describes the lifecycle of a permutation within one batch run.
// Transitions only move forward: pending -> generating -> generated or error.
type Status int

const (
	// StatusPending means the item has not been processed yet.
	StatusPending Status = iota
	// StatusGenerating means a synthesis call for the item is in flight.
	StatusGenerating
	// StatusGenerated means audio was synthesized and persisted.
	StatusGenerated
	// StatusError means synthesis or persistence failed for the item.
	StatusError
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusGenerating:
		return "generating"
	case StatusGenerated:
		return "generated"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Name is one first/last name pairing from the configured name list.
type Name struct {
	First string
	Last  string
}

// Item is the transient per-permutation state for one batch run. Payload is
// kept in memory for in-session playback after a successful generation; the
// durable copy lives in the audio cache.
type Item struct {
	Text    string
	Status  Status
	Payload []byte
	Err     string
}

// Build computes the full cross-product of distinct first names and distinct
// last names, first-name-major, and collapses duplicate text strings to a
// single item. Two different name-list entries can legitimately produce the
// same "First Last" string; it is generated and stored once.
func Build(names []Name) []*Item {
	seen := make(map[string]struct{}, len(names)*len(names))
	items := make([]*Item, 0, len(names)*len(names))

	for _, first := range names {
		for _, last := range names {
			text := first.First + " " + last.Last

			if _, ok := seen[text]; ok {
				continue
			}

			seen[text] = struct{}{}

			items = append(items, &Item{
				Text:    text,
				Status:  StatusPending,
				Payload: nil,
				Err:     "",
			})
		}
	}

	return items
}

// Texts returns the text of every item, in item order.
func Texts(items []*Item) []string {
	texts := make([]string, 0, len(items))

	for _, item := range items {
		texts = append(texts, item.Text)
	}

	return texts
}
