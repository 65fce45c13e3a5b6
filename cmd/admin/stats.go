package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record counts per store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStores()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		users, err := repositories.NewSQLUserRepository(s.db.SQL).CountUsers(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "profiles\t%d\n", users)

		items := s.services().Items
		for _, kind := range models.AllKinds {
			n, err := items.CountItems(ctx, kind)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\n", kind.Collection(), n)
		}

		notifications, err := repositories.NewSQLNotificationRepository(s.db.SQL).CountNotifications(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "notifications\t%d\n", notifications)

		messages, err := repositories.NewSQLMessageRepository(s.db.SQL).CountMessages(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "messages\t%d\n", messages)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
