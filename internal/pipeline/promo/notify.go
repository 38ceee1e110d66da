package promo

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
)

// DeriveNotification classifies an out-of-stock quantity by supply source. Buyer-managed
// sources (1, 4) get a buyer notification naming buyerGroup; the depot source (2) gets a
// replenishment suggestion. Anything else, including the invalid-source sentinel, gets
// nothing.
func DeriveNotification(outOfStock float64, source domain.SupplySource, buyerGroup string) (string, bool) {
	note, ok := notificationNote(outOfStock, source, buyerGroup)
	return note.Message, ok
}

func notificationNote(outOfStock float64, source domain.SupplySource, buyerGroup string) (domain.Note, bool) {
	if outOfStock <= 0 {
		return domain.Note{}, false
	}
	switch {
	case source.BuyerManaged():
		group := strings.TrimSpace(buyerGroup)
		if group == "" {
			group = "unassigned group"
		}
		return domain.Note{
			Code:    domain.NoteBuyerNotification,
			Message: fmt.Sprintf("notify buyer (%s): out of stock by %s", group, formatQty(outOfStock)),
		}, true
	case source.DepotManaged():
		return domain.Note{
			Code:    domain.NoteDepotReplenishment,
			Message: fmt.Sprintf("suggest replenishing %s from the central depot, check central depot stock", formatQty(outOfStock)),
		}, true
	}
	return domain.Note{}, false
}

// Digest joins distinct notification messages in first-seen order, or returns
// domain.NoNotificationsLabel when there are none.
func Digest(messages []string) string {
	seen := make(map[string]bool, len(messages))
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		parts = append(parts, m)
	}
	if len(parts) == 0 {
		return domain.NoNotificationsLabel
	}
	return strings.Join(parts, domain.NoteSeparator)
}
