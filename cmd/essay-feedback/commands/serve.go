package commands

import (
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/essay-feedback/internal/core"
	"github.com/joseph-ayodele/essay-feedback/internal/export"
	"github.com/joseph-ayodele/essay-feedback/internal/ingest"
	"github.com/joseph-ayodele/essay-feedback/internal/repository"
	"github.com/joseph-ayodele/essay-feedback/internal/server"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr  string
		inmem bool
		gops  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC feedback service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.GRPCAddr = addr
			}
			if err := a.cfg.ValidateForServer(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if gops {
				if err := agent.Listen(agent.Options{}); err != nil {
					a.logger.Warn("gops agent failed to start", "error", err)
				} else {
					defer agent.Close()
				}
			}

			var store repository.UploadStore
			if inmem {
				store = repository.NewMemoryStore()
				a.logger.Info("using in-memory upload store")
			} else {
				drv, pool, err := server.ConnectDB(ctx, a.cfg.Database, a.logger)
				if err != nil {
					return err
				}
				defer server.CloseDB(drv, pool, a.logger)
				store = repository.NewSQLStore(drv, a.logger)
			}

			proc, err := a.processor("", true)
			if err != nil {
				return err
			}
			ing := ingest.NewFSIngestor(a.cfg.Uploads.Dir, a.cfg.Uploads.MaxBytes, a.logger)
			reg := core.NewRegistry(store, ing, proc, a.logger)
			svc := server.NewFeedbackService(reg, export.NewService(a.logger), a.logger)
			grpcServer, hs := server.NewGRPCServer(svc, a.logger)

			lis, err := net.Listen("tcp", a.cfg.Server.GRPCAddr)
			if err != nil {
				a.logger.Error("failed to listen on address", "addr", a.cfg.Server.GRPCAddr, "error", err)
				return err
			}
			a.logger.Info("essay-feedback listening", "addr", lis.Addr().String())

			errCh := make(chan error, 1)
			go func() { errCh <- grpcServer.Serve(lis) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.logger.Info("shutting down")
			hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

			stopped := make(chan struct{})
			go func() { grpcServer.GracefulStop(); close(stopped) }()
			select {
			case <-stopped:
			case <-time.After(10 * time.Second):
				grpcServer.Stop()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default GRPC_ADDR)")
	cmd.Flags().BoolVar(&inmem, "inmem", false, "keep the upload registry in memory")
	cmd.Flags().BoolVar(&gops, "gops", false, "start a gops diagnostics agent")
	return cmd
}
