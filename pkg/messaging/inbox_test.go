package messaging

import (
	"testing"

	"roundbuy/pkg/models"
)

func conv(id, buyer, seller, lastSender string, isRead bool) models.Conversation {
	return models.Conversation{
		ID:                  id,
		BuyerID:             buyer,
		SellerID:            seller,
		LastMessage:         "hello",
		LastMessageSenderID: lastSender,
		IsRead:              isRead,
	}
}

func TestPartition(t *testing.T) {
	convs := []models.Conversation{
		conv("c1", "me", "s1", "s1", false),   // buying
		conv("c2", "b1", "me", "b1", true),    // selling
		conv("c3", "me", "s2", "me", true),    // buying
		conv("c4", "me", "me", "me", false),   // malformed: both sides
		conv("c5", "b2", "s3", "b2", false),   // malformed: neither side
	}
	buying, selling := Partition(convs, "me")
	if len(buying) != 2 || buying[0].ID != "c1" || buying[1].ID != "c3" {
		t.Fatalf("buying = %+v", buying)
	}
	if len(selling) != 1 || selling[0].ID != "c2" {
		t.Fatalf("selling = %+v", selling)
	}
}

func TestFilterTabs(t *testing.T) {
	convs := []models.Conversation{
		conv("c1", "me", "s1", "", false),
		conv("c2", "b1", "me", "", false),
	}
	if got := Filter(convs, "me", TabAll); len(got) != 2 {
		t.Fatalf("all = %d", len(got))
	}
	if got := Filter(convs, "me", TabBuying); len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("buying = %+v", got)
	}
	if got := Filter(convs, "me", TabSelling); len(got) != 1 || got[0].ID != "c2" {
		t.Fatalf("selling = %+v", got)
	}
}

func TestUnread(t *testing.T) {
	cases := []struct {
		name string
		c    models.Conversation
		want bool
	}{
		{"incoming unread", conv("c", "me", "s", "s", false), true},
		{"incoming read", conv("c", "me", "s", "s", true), false},
		{"own last message", conv("c", "me", "s", "me", false), false},
		{"no messages yet", conv("c", "me", "s", "", false), false},
	}
	for _, tc := range cases {
		if got := Unread(tc.c, "me"); got != tc.want {
			t.Errorf("%s: Unread = %t", tc.name, got)
		}
	}
}

func TestUnreadCount(t *testing.T) {
	convs := []models.Conversation{
		conv("c1", "me", "s1", "s1", false),
		conv("c2", "me", "s2", "s2", true),
		conv("c3", "b1", "me", "b1", false),
		conv("c4", "me", "s3", "me", false),
	}
	if got := UnreadCount(convs, "me"); got != 2 {
		t.Fatalf("UnreadCount = %d", got)
	}
}
