package domain

import (
	"encoding/json"
	"strings"
)

// NoteCode identifies the kind of diagnostic attached to a row.
type NoteCode string

const (
	NoteCarried             NoteCode = "carried"
	NoteNotNumeric          NoteCode = "not_numeric"
	NoteNegativeClamped     NoteCode = "negative_clamped"
	NoteSalesCapped         NoteCode = "sales_capped"
	NoteOutOfRangeClamped   NoteCode = "out_of_range_clamped"
	NoteInvalidSupplySource NoteCode = "invalid_supply_source"
	NoteUnknownRPType       NoteCode = "unknown_rp_type"
	NotePercentScaled       NoteCode = "percent_scaled"
	NoteUnmatchedArticle    NoteCode = "unmatched_article"
	NoteUnmatchedSite       NoteCode = "unmatched_site"
	NoteDuplicateSite       NoteCode = "duplicate_site"
	NoteLeadTime            NoteCode = "lead_time"
	NoteBelowMOQ            NoteCode = "below_moq"
	NoteBuyerNotification   NoteCode = "buyer_notification"
	NoteDepotReplenishment  NoteCode = "depot_replenishment"
)

// NoteSeparator joins notes into display text.
const NoteSeparator = "; "

// Note is a single diagnostic entry.
type Note struct {
	Code    NoteCode `json:"code"`
	Field   string   `json:"field,omitempty"`
	Message string   `json:"message"`
}

// Notes is the ordered, append-only diagnostic log of a row.
type Notes []Note

// With returns a new Notes with more appended; the receiver is never modified.
func (n Notes) With(more ...Note) Notes {
	if len(more) == 0 {
		return n
	}
	out := make(Notes, 0, len(n)+len(more))
	out = append(out, n...)
	return append(out, more...)
}

// Has reports whether any entry carries the code.
func (n Notes) Has(code NoteCode) bool {
	for _, note := range n {
		if note.Code == code {
			return true
		}
	}
	return false
}

// Codes lists the entry codes in order.
func (n Notes) Codes() []NoteCode {
	codes := make([]NoteCode, len(n))
	for i, note := range n {
		codes[i] = note.Code
	}
	return codes
}

// String joins the messages for display.
func (n Notes) String() string {
	msgs := make([]string, 0, len(n))
	for _, note := range n {
		if note.Message == "" {
			continue
		}
		msgs = append(msgs, note.Message)
	}
	return strings.Join(msgs, NoteSeparator)
}

// MarshalJSON renders notes as an array even when empty.
func (n Notes) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Note(n))
}

// ParseNotes turns previously rendered note text back into carried entries.
func ParseNotes(text string) Notes {
	var out Notes
	for _, part := range strings.Split(text, NoteSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, Note{Code: NoteCarried, Message: part})
	}
	return out
}
