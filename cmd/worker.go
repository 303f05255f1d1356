/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os/signal"
	"syscall"

	"github.com/harjot20022001/bug-tracker/internal/server"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes queued ticket notifications and sends email",
	Long: `Runs the notification worker on its own, for deployments that start the
API with NOTIFY_INPROCESS_WORKER=false and a shared queue (rabbitmq or pubsub).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.RunWorker(ctx, cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
