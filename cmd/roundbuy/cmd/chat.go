package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Read and send conversation messages",
}

var chatShowCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show the messages in a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.requireAuth(); err != nil {
			return err
		}

		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		res, err := e.msg.ConversationMessages(context.Background(), args[0], page, limit)
		if err != nil {
			return err
		}
		if len(res.Messages) == 0 {
			fmt.Println("No messages.")
			return nil
		}
		viewer := e.viewerID()
		for _, m := range res.Messages {
			who := "them"
			if m.SenderID == viewer {
				who = "you"
			}
			fmt.Printf("[%s] %s\n", who, m.Body)
		}
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Message a seller about an advertisement",
	Long:  `Send a message about an advertisement. Starts a new conversation, or continues the existing one for the same listing.`,
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
		text, _ := cmd.Flags().GetString("message")
		if adID == "" || text == "" {
			return fmt.Errorf("--ad and --message are required")
		}

		res, err := e.msg.SendMessage(context.Background(), adID, text)
		if err != nil {
			return err
		}
		fmt.Printf("Sent. Conversation %s\n", res.ConversationID)
		return nil
	},
}

func init() {
	chatShowCmd.Flags().Int("page", 1, "page number")
	chatShowCmd.Flags().Int("limit", 50, "messages per page")
	chatSendCmd.Flags().String("ad", "", "advertisement ID")
	chatSendCmd.Flags().String("message", "", "message text")
	chatCmd.AddCommand(chatShowCmd)
	chatCmd.AddCommand(chatSendCmd)
	rootCmd.AddCommand(chatCmd)
}
