package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/voyagen/mediaorganizer/internal/jobs"
	"github.com/voyagen/mediaorganizer/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var withWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the sync scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := ctx.open(runCtx)
			if err != nil {
				return err
			}
			defer rt.Close()

			sched := jobs.NewScheduler(rt.cfg.SyncSchedule, rt.dispatcher, rt.redis, rt.logger)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			g, gctx := errgroup.WithContext(runCtx)
			g.Go(func() error {
				return server.New(rt.store, rt.dispatcher, rt.cfg, rt.logger).ListenAndServe(gctx)
			})
			if withWorker {
				g.Go(func() error {
					return jobs.NewWorker(rt.queue, rt.engine(), rt.cfg.Workers, rt.logger).Run(gctx)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "Also run job workers in this process")
	return cmd
}

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background workers that execute queued sync and analyze jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := ctx.open(runCtx)
			if err != nil {
				return err
			}
			defer rt.Close()

			n := rt.cfg.Workers
			if concurrency > 0 {
				n = concurrency
			}
			return jobs.NewWorker(rt.queue, rt.engine(), n, rt.logger).Run(runCtx)
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "Number of worker loops (default: WORKERS)")
	return cmd
}
