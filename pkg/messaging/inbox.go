package messaging

import "roundbuy/pkg/models"

// Tab selects an inbox partition.
type Tab string

const (
	TabAll     Tab = "all"
	TabBuying  Tab = "buying"
	TabSelling Tab = "selling"
)

// Unread reports whether a conversation should show as unread for the
// viewer: the last message came from the counterpart and has not been
// read yet.
func Unread(c models.Conversation, viewerID string) bool {
	return c.LastMessageSenderID != "" && c.LastMessageSenderID != viewerID && !c.IsRead
}

// wellFormed rejects rows where the viewer is on both sides or on
// neither; buyer and seller are mutually exclusive for any valid
// conversation.
func wellFormed(c models.Conversation, viewerID string) bool {
	isBuyer := c.BuyerID == viewerID
	isSeller := c.SellerID == viewerID
	return isBuyer != isSeller
}

// Partition splits conversations into the viewer's buying and selling
// subsets. Malformed rows are excluded from both.
func Partition(convs []models.Conversation, viewerID string) (buying, selling []models.Conversation) {
	for _, c := range convs {
		if !wellFormed(c, viewerID) {
			continue
		}
		if c.BuyerID == viewerID {
			buying = append(buying, c)
		} else {
			selling = append(selling, c)
		}
	}
	return buying, selling
}

// Filter returns the subset for a tab.
func Filter(convs []models.Conversation, viewerID string, tab Tab) []models.Conversation {
	switch tab {
	case TabBuying:
		b, _ := Partition(convs, viewerID)
		return b
	case TabSelling:
		_, s := Partition(convs, viewerID)
		return s
	default:
		return convs
	}
}

// UnreadCount counts conversations showing as unread for the viewer.
func UnreadCount(convs []models.Conversation, viewerID string) int {
	n := 0
	for _, c := range convs {
		if Unread(c, viewerID) {
			n++
		}
	}
	return n
}
