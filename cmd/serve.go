package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "ragcompare/handler/http"
	"ragcompare/src/log"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ragcompare API server",
	Long: `The serve command builds one index per chunking strategy and starts an HTTP server
that answers questions, compares strategies and accepts evaluation jobs.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.buildIndexes(ctx); err != nil {
		return err
	}

	rt, err := newJobRuntime(a.pipeline, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	// With an in-process transport the jobs are consumed here.
	if rt.subscriber != nil {
		router, err := rt.router()
		if err != nil {
			return fmt.Errorf("failed to create job router: %w", err)
		}
		go func() {
			if err := router.Run(ctx); err != nil {
				log.Error(err, "job router stopped")
			}
		}()
		<-router.Running()
		defer router.Close()
	}

	if !viper.GetBool("log.debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpHdlr.NewHandler(a.pipeline, a.doc, rt.service)

	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: httpHdlr.NewRouter(handler),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Info("invalid shutdown timeout, using default 5s", "value", viper.GetString("server.shutdown_timeout"))
		timeout = 5 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
	}

	log.Info("server exited")
	return nil
}

// notifyContext is used by the long running commands other than serve.
func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
