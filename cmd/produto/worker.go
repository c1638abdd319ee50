package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/deppfellow/produto-service/internal/lib/job"
	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process background jobs (low stock alerts)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, loggerService, err := bootstrap()
			if err != nil {
				return err
			}
			defer loggerService.Shutdown()

			if cfg.Redis.Address == "" {
				return errors.New("worker requires redis.address")
			}

			jobs := job.NewJobService(log, cfg)
			jobs.InitHandlers(cfg)

			if err := jobs.StartWorker(cfg); err != nil {
				return err
			}
			defer jobs.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()
			return nil
		},
	}
}
