package messaging_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"roundbuy/internal/mockapi"
	"roundbuy/pkg/auth"
	"roundbuy/pkg/messaging"
	"roundbuy/pkg/models"
	"roundbuy/pkg/session"
	"roundbuy/pkg/transport"
)

type testUser struct {
	user models.User
	sess *session.Session
	api  *transport.Client
	msg  *messaging.Service
}

type fixture struct {
	api    *mockapi.Server
	srv    *httptest.Server
	seller testUser
	buyer  testUser
	ad     models.Advertisement
}

func signIn(t *testing.T, baseURL string, u models.User, password string) testUser {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "session"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sess := session.New(store)
	if err := sess.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	t.Cleanup(func() { sess.Dispose() })

	api := transport.New(baseURL, store)
	if _, err := auth.NewService(api, sess).Login(context.Background(), u.Email, password); err != nil {
		t.Fatalf("login %s: %v", u.Email, err)
	}
	return testUser{user: u, sess: sess, api: api, msg: messaging.NewService(api)}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := mockapi.New()
	seller := api.SeedUser("Demo Seller", "seller@example.com", "pass123")
	buyer := api.SeedUser("Demo Buyer", "buyer@example.com", "pass123")
	ad := api.SeedAdvertisement(seller.ID, "Vintage armchair", "GBP", 25000)

	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	base := srv.URL + "/api/v1/mobile-app"

	return &fixture{
		api:    api,
		srv:    srv,
		seller: signIn(t, base, seller, "pass123"),
		buyer:  signIn(t, base, buyer, "pass123"),
		ad:     ad,
	}
}

func TestSendMessageCreatesConversationOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.buyer.msg.SendMessage(ctx, f.ad.ID, "Is this still available?")
	assert.NoError(t, err)
	assert.NotEmpty(t, first.ConversationID)
	assert.Equal(t, "Is this still available?", first.Message.Body)

	// a second message about the same listing reuses the conversation
	second, err := f.buyer.msg.SendMessage(ctx, f.ad.ID, "Could you post it?")
	assert.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	page, err := f.buyer.msg.Conversations(ctx, 1, 20)
	assert.NoError(t, err)
	assert.Len(t, page.Conversations, 1)
	c := page.Conversations[0]
	assert.Equal(t, f.buyer.user.ID, c.BuyerID)
	assert.Equal(t, f.seller.user.ID, c.SellerID)
	assert.Equal(t, "Could you post it?", c.LastMessage)
}

func TestSellerCannotMessageOwnAdvertisement(t *testing.T) {
	f := newFixture(t)

	_, err := f.seller.msg.SendMessage(context.Background(), f.ad.ID, "hello me")
	assert.True(t, transport.IsCode(err, transport.CodeValidationError), "got %v", err)
}

func TestConversationAppearsOnBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.buyer.msg.SendMessage(ctx, f.ad.ID, "Hi there")
	assert.NoError(t, err)

	sellerPage, err := f.seller.msg.Conversations(ctx, 1, 20)
	assert.NoError(t, err)
	assert.Len(t, sellerPage.Conversations, 1)
	assert.Equal(t, res.ConversationID, sellerPage.Conversations[0].ID)

	// unread for the seller, not for the sending buyer
	assert.Equal(t, 1, messaging.UnreadCount(sellerPage.Conversations, f.seller.user.ID))
	buyerPage, err := f.buyer.msg.Conversations(ctx, 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, 0, messaging.UnreadCount(buyerPage.Conversations, f.buyer.user.ID))
}

func TestReadingMessagesMarksConversationRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.buyer.msg.SendMessage(ctx, f.ad.ID, "Hi there")
	assert.NoError(t, err)

	msgs, err := f.seller.msg.ConversationMessages(ctx, res.ConversationID, 1, 50)
	assert.NoError(t, err)
	assert.Len(t, msgs.Messages, 1)
	assert.Equal(t, "Hi there", msgs.Messages[0].Body)

	sellerPage, err := f.seller.msg.Conversations(ctx, 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, 0, messaging.UnreadCount(sellerPage.Conversations, f.seller.user.ID))
}

func TestExpiredTokenIsRefreshedSilently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.buyer.msg.SendMessage(ctx, f.ad.ID, "Hi there")
	assert.NoError(t, err)

	before, err := f.buyer.sess.Store().AccessToken()
	assert.NoError(t, err)

	f.api.ExpireAccessTokens()

	page, err := f.buyer.msg.Conversations(ctx, 1, 20)
	assert.NoError(t, err)
	assert.Len(t, page.Conversations, 1)

	after, err := f.buyer.sess.Store().AccessToken()
	assert.NoError(t, err)
	assert.NotEqual(t, before, after, "access token should have rotated")
}

func TestGatedEndpointSetsSubscriptionFlag(t *testing.T) {
	f := newFixture(t)
	f.api.RequireSubscription("/messaging/conversations")

	_, err := f.buyer.msg.Conversations(context.Background(), 1, 20)
	te, ok := transport.AsError(err)
	assert.True(t, ok, "got %v", err)
	assert.True(t, te.RequireSubscription)
	assert.Equal(t, transport.CodeSubscriptionRequired, te.Code)
}
