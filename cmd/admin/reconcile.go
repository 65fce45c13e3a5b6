package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

var reconcileKind string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-counters",
	Short: "Recount likes and comments and repair drifted counters",
	Long: `reconcile-counters recounts the like marks and comments of every item and
rewrites any like_count or comment_count that disagrees. Use --kind to limit it
to one collection.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := models.AllKinds
		if reconcileKind != "" {
			kind, ok := models.ParseKind(reconcileKind)
			if !ok {
				return fmt.Errorf("unknown kind %q", reconcileKind)
			}
			kinds = []models.ContentKind{kind}
		}

		s, err := openStores()
		if err != nil {
			return err
		}
		defer s.Close()

		interactions := s.services().Interactions
		for _, kind := range kinds {
			repaired, err := interactions.ReconcileAll(cmd.Context(), kind)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", kind.Collection(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d repaired\n", kind.Collection(), repaired)
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileKind, "kind", "", "share, project or activity (default all)")
	rootCmd.AddCommand(reconcileCmd)
}
