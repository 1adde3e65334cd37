package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"roundbuy/pkg/messaging"
	"roundbuy/pkg/models"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List your conversations",
	Long:  `List conversations, optionally filtered to the buying or selling side. Unread conversations are marked with *.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.requireAuth(); err != nil {
			return err
		}

		tabFlag, _ := cmd.Flags().GetString("tab")
		tab, err := parseTab(tabFlag)
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := context.Background()
		res, err := e.msg.Conversations(ctx, page, limit)
		if err != nil {
			return err
		}

		viewer := e.viewerID()
		convs := messaging.Filter(res.Conversations, viewer, tab)
		if len(convs) == 0 {
			fmt.Println("No conversations.")
			return nil
		}
		for _, c := range convs {
			mark := " "
			if messaging.Unread(c, viewer) {
				mark = "*"
			}
			price := c.AdvertisementPrice.Format(models.SymbolFor("GBP"))
			fmt.Printf("%s %-26s  %-40s  %10s  %s\n", mark, c.ID, truncate(c.AdvertisementTitle, 40), price, truncate(c.LastMessage, 48))
		}
		fmt.Printf("\n%d unread of %d shown (page %d/%d)\n",
			messaging.UnreadCount(convs, viewer), len(convs), res.Pagination.Page, res.Pagination.TotalPages)
		return nil
	},
}

func parseTab(s string) (messaging.Tab, error) {
	switch s {
	case "", "all":
		return messaging.TabAll, nil
	case "buying":
		return messaging.TabBuying, nil
	case "selling":
		return messaging.TabSelling, nil
	default:
		return "", fmt.Errorf("unknown tab %q (want all, buying or selling)", s)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	inboxCmd.Flags().String("tab", "all", "conversation tab: all, buying or selling")
	inboxCmd.Flags().Int("page", 1, "page number")
	inboxCmd.Flags().Int("limit", 20, "conversations per page")
	rootCmd.AddCommand(inboxCmd)
}
