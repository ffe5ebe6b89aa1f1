package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragcompare/src/log"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the evaluation job worker",
	Long: `The worker consumes evaluation jobs from AMQP. It needs jobs.transport amqp and
jobs.store postgres, shared with the serve process that enqueues the jobs.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	if viper.GetString("jobs.transport") != "amqp" {
		return configError("worker needs jobs.transport amqp, got %q", viper.GetString("jobs.transport"))
	}

	ctx, cancel := notifyContext()
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.buildIndexes(ctx); err != nil {
		return err
	}

	rt, err := newJobRuntime(a.pipeline, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	router, err := rt.router()
	if err != nil {
		return fmt.Errorf("failed to create job router: %w", err)
	}

	log.Info("worker started", "amqp", viper.GetString("amqp.url"))
	// Run blocks until ctx is cancelled by a signal.
	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("job router failed: %w", err)
	}
	log.Info("router stopped")
	return nil
}
