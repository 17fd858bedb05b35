package main

import (
	"net"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/freeseed/exams-tw/internal/export"
	repo "github.com/freeseed/exams-tw/internal/repository"
	"github.com/freeseed/exams-tw/internal/server"
)

var (
	serveAddr   string
	serveSource string
)

// serveCmd exposes exams, exports and the ledger over gRPC.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve examstw.v1.ExamService over gRPC",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default GRPC_ADDR)")
	serveCmd.Flags().StringVar(&serveSource, "source", "dir", "dir (JSON folders) or mongo")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.Server.GRPCAddr = serveAddr
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	ctx := cmd.Context()

	src, release, err := examSource(ctx, serveSource)
	if err != nil {
		return err
	}
	defer release()

	ledger, err := server.ConnectLedger(ctx, cfg.Ledger, logger)
	if err != nil {
		return err
	}
	defer server.CloseAll(ledger, nil, logger)
	if err := server.PingLedger(ctx, ledger, logger, 5*time.Second); err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}
	grpcServer := grpc.NewServer()

	svc := server.NewExamServer(src, export.NewService(src, logger), repo.NewExtractJobRepository(ledger, logger), logger)
	server.RegisterExamServiceServer(grpcServer, svc)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(server.ExamServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("examstw listening", "addr", cfg.Server.GRPCAddr, "source", serveSource)
	errCh := make(chan error, 1)
	go func() { errCh <- grpcServer.Serve(lis) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
