package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"roundbuy/pkg/models"
	"roundbuy/pkg/offers"
)

var offerCmd = &cobra.Command{
	Use:   "offer",
	Short: "Make and respond to offers",
}

var offerMakeCmd = &cobra.Command{
	Use:   "make",
	Short: "Make an offer on an advertisement",
	Long:  `Make an offer. When no conversation exists yet, one is opened with the seller first and the offer is attached to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.requireAuth(); err != nil {
			return err
		}

		adID, _ := cmd.Flags().GetString("ad")
		convID, _ := cmd.Flags().GetString("conversation")
		priceStr, _ := cmd.Flags().GetString("price")
		message, _ := cmd.Flags().GetString("message")
		if priceStr == "" {
			return fmt.Errorf("--price is required")
		}
		if adID == "" && convID == "" {
			return fmt.Errorf("--ad or --conversation is required")
		}
		price, err := models.ParsePrice(priceStr)
		if err != nil {
			return err
		}

		neg := offers.NewNegotiator(e.msg, e.off, e.viewerID())
		offer, conversationID, err := neg.MakeOffer(context.Background(), offers.MakeOfferInput{
			ConversationID:  convID,
			AdvertisementID: adID,
			Price:           price,
			Message:         message,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Offer %s made: %s (%s) in conversation %s\n",
			offer.ID, offer.OfferedPrice.Format(models.SymbolFor(offer.Currency)), offer.Status, conversationID)
		return nil
	},
}

var offerAcceptCmd = &cobra.Command{
	Use:   "accept <offer-id>",
	Short: "Accept a received offer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respondOffer(cmd, args[0], true)
	},
}

var offerDeclineCmd = &cobra.Command{
	Use:   "decline <offer-id>",
	Short: "Decline a received offer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respondOffer(cmd, args[0], false)
	},
}

func respondOffer(cmd *cobra.Command, offerID string, accept bool) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.requireAuth(); err != nil {
		return err
	}

	ctx := context.Background()
	var o *models.Offer
	if accept {
		o, err = e.off.Accept(ctx, offerID)
	} else {
		o, err = e.off.Decline(ctx, offerID)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Offer %s is now %s.\n", o.ID, o.Status)
	if accept && o.PickupAvailable {
		fmt.Println("Pickup can now be arranged in the conversation.")
	}
	return nil
}

var offerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.requireAuth(); err != nil {
			return err
		}

		role, _ := cmd.Flags().GetString("role")
		status, _ := cmd.Flags().GetString("status")
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		params := offers.ListParams{Role: offers.Role(role), Status: models.OfferStatus(status), Page: page, Limit: limit}
		res, err := e.off.UserOffers(context.Background(), params)
		if err != nil {
			return err
		}
		if len(res.Offers) == 0 {
			fmt.Println("No offers.")
			return nil
		}
		viewer := e.viewerID()
		for _, o := range res.Offers {
			dir := "received"
			if o.SenderID == viewer {
				dir = "made"
			}
			fmt.Printf("%-26s  %-8s  %10s  %-8s  conversation %s\n",
				o.ID, dir, o.OfferedPrice.Format(models.SymbolFor(o.Currency)), o.Status, o.ConversationID)
		}
		return nil
	},
}

var offerStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show offer counts by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.requireAuth(); err != nil {
			return err
		}

		st, err := e.off.Stats(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("pending:  %d\naccepted: %d\nrejected: %d\nmade:     %d\nreceived: %d\n",
			st.Pending, st.Accepted, st.Rejected, st.Made, st.Received)
		return nil
	},
}

func init() {
	offerMakeCmd.Flags().String("ad", "", "advertisement ID")
	offerMakeCmd.Flags().String("conversation", "", "existing conversation ID")
	offerMakeCmd.Flags().String("price", "", "offer price, e.g. 250 or £250.00")
	offerMakeCmd.Flags().String("message", "", "message to send with the offer")
	offerListCmd.Flags().String("role", "all", "filter by role: all, buyer or seller")
	offerListCmd.Flags().String("status", "", "filter by status: pending, accepted or rejected")
	offerListCmd.Flags().Int("page", 1, "page number")
	offerListCmd.Flags().Int("limit", 20, "offers per page")
	offerCmd.AddCommand(offerMakeCmd)
	offerCmd.AddCommand(offerAcceptCmd)
	offerCmd.AddCommand(offerDeclineCmd)
	offerCmd.AddCommand(offerListCmd)
	offerCmd.AddCommand(offerStatsCmd)
	rootCmd.AddCommand(offerCmd)
}
