package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jemaltech/app2automate/config"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := config.Migrate(a.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			a.log.Info("Database schema is up to date")
			return nil
		},
	}
}

func newReindexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the database",
		Long: `Write every post in the database to the search index, creating the
index when it does not exist. Documents of posts that no longer exist are
left in place; drop the index first for a clean rebuild.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.reconciler().Reindex(cmd.Context())
			if err != nil {
				return fmt.Errorf("reindex after %d posts: %w", n, err)
			}
			a.log.Info("Reindex complete", zap.Int("posts", n))
			return nil
		},
	}
}

func newReconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Apply pending index outbox entries once and purge old processed ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			r := a.reconciler()
			res, err := r.ReconcileOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			purged, err := r.Purge(cmd.Context())
			if err != nil {
				return fmt.Errorf("purge: %w", err)
			}

			a.log.Info("Reconcile complete",
				zap.Int("applied", res.Applied),
				zap.Int("failed", res.Failed),
				zap.Int("deferred", res.Deferred),
				zap.Int64("purged", purged),
			)
			return nil
		},
	}
}
