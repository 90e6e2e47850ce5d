package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voyagen/mediaorganizer/internal/models"
	"github.com/voyagen/mediaorganizer/internal/store"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			driver, err := cfg.DatabaseDriver()
			if err != nil {
				return err
			}
			if err := store.RunMigrations(driver, cfg.DatabaseURL); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s database is up to date\n", driver)
			return nil
		},
	}
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "sync [movie|series]...",
		Short:     "Queue a library sync (both kinds when none given)",
		ValidArgs: []string{string(models.KindMovie), string(models.KindSeries)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := models.Kinds()
			if len(args) > 0 {
				kinds = kinds[:0]
				for _, a := range args {
					k, err := models.ParseKind(a)
					if err != nil {
						return err
					}
					kinds = append(kinds, k)
				}
			}

			rt, err := ctx.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			for _, k := range kinds {
				if err := rt.dispatcher.EnqueueSync(cmd.Context(), k); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queued %s sync\n", k.Service())
			}
			return nil
		},
	}
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect or clear the job queue",
	}
	queueCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the number of pending jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			n, err := rt.dispatcher.QueueDepth(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pending\n", n)
			return nil
		},
	})
	queueCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop all pending jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			n, err := rt.dispatcher.ClearQueue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped %d jobs\n", n)
			return nil
		},
	})
	return queueCmd
}
