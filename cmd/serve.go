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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ruka-lang/ruka/internal/compiler"
	"github.com/ruka-lang/ruka/internal/server"
)

var (
	serveAddr string
	serveJobs int
)

// serve: run the HTTP compile service
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP compile service",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	ServeCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
	ServeCmd.Flags().IntVarP(&serveJobs, "jobs", "j", 1, "units compiled in parallel per request")
}

func serveRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           server.New(logger, compiler.WithJobs(serveJobs)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("compile service listening", "addr", serveAddr)
		fmt.Fprintf(cmd.ErrOrStderr(), "↪ listening on %s\n", serveAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("compile service shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
