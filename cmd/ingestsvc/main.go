package main

import (
	"flag"
	"net"

	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"wtftrace/internal/config"
	"wtftrace/internal/ingestsvc"
	"wtftrace/internal/ingestsvc/proto"
	"wtftrace/trace"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	log := logrus.WithField("component", "cmd/ingestsvc")

	if _, err := maxprocs.Set(maxprocs.Logger(log.Infof)); err != nil {
		log.WithError(err).Warn("failed to set GOMAXPROCS")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	applyLogLevel(cfg.Logging.Level)

	db := trace.NewDatabase()
	srv := ingestsvc.NewServer(db)

	lis, err := net.Listen("tcp", cfg.Ingest.GRPCAddr)
	if err != nil {
		log.WithError(err).Fatal("failed to listen")
	}

	// IngestionService's messages are plain structs, not protobuf
	// messages (see internal/ingestsvc/proto/codec.go) - force the codec
	// explicitly rather than rely on init-order registry shadowing of
	// grpc-go's default "proto" codec.
	grpcServer := grpc.NewServer(grpc.ForceServerCodec(proto.Codec))
	proto.RegisterIngestionServiceServer(grpcServer, srv)
	reflection.Register(grpcServer)

	log.WithField("addr", cfg.Ingest.GRPCAddr).Info("ingestion service listening")
	if err := grpcServer.Serve(lis); err != nil {
		log.WithError(err).Fatal("grpc server exited")
	}
}

func applyLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.SetLevel(logrus.InfoLevel)
		return
	}
	logrus.SetLevel(lvl)
}
