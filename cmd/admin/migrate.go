package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anonto42/preschool-social/backend/internal/repositories"
	"github.com/anonto42/preschool-social/backend/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table and index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStores()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := repositories.AutoMigrate(s.db.SQL, s.cfg.ContentStore == config.ContentStoreSQL); err != nil {
			return err
		}
		if s.mongo != nil {
			if err := repositories.NewMongoContentRepository(s.mongo).EnsureIndexes(cmd.Context()); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrated (content store: %s)\n", s.cfg.ContentStore)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
