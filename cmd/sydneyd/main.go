// Command sydneyd is the server entrypoint wiring the lock registry, the
// merge scheduler, the session/worker layer, and the gRPC wire boundary
// together, grounded on tinySQL's cmd/server/main.go flag/serve
// structure.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/sydneydb/sydney/internal/execruntime"
	"github.com/sydneydb/sydney/internal/lockregistry"
	"github.com/sydneydb/sydney/internal/merge"
	"github.com/sydneydb/sydney/internal/session"
	"github.com/sydneydb/sydney/internal/wire"
)

var (
	flagConfig = flag.String("config", "", "path to a YAML config file (optional, see config.go for defaults)")
	flagGRPC   = flag.String("grpc", "", "gRPC listen address, overrides the config file's grpc_addr")
)

// emptyCompiler is the statement-compilation seam: SQL parsing and name
// resolution are out of scope for this module (spec.md Non-goals), so a
// real deployment replaces this with a planner that turns statement text
// into an execruntime.Program. Until that's wired in, every statement
// compiles to a Program whose single iterator yields no rows.
func emptyCompiler(ctx context.Context, databaseName, statement string, params []any) (*execruntime.Program, execruntime.ID, error) {
	p := execruntime.NewProgram()
	id := p.AddIterator(execruntime.NewTuplesIterator(nil))
	return p, id, nil
}

func main() {
	flag.Parse()

	cfg, err := LoadConfig(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *flagGRPC != "" {
		cfg.GRPCAddr = *flagGRPC
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	registry := lockregistry.New()
	drivers := newDriverMerger()

	scheduler := merge.New(merge.Config{
		Merger:     drivers,
		Registry:   registry,
		Workers:    cfg.MergeWorkers,
		NudgeCron:  cfg.MergeNudgeCron,
		MaxRuntime: cfg.MergeMaxRuntime,
		Log:        sugar,
	})
	scheduler.Start()
	defer scheduler.Stop()

	instances := session.NewInstanceManager(session.WithLogger(sugar))

	srv := wire.NewServer(instances, emptyCompiler, cfg.Version, sugar)

	encoding.RegisterCodec(wire.JSONCodec{})
	gs := grpc.NewServer()
	wire.RegisterServer(gs, srv)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		sugar.Fatalf("listen on %s: %v", cfg.GRPCAddr, err)
	}

	go func() {
		sugar.Infof("gRPC listening on %s", cfg.GRPCAddr)
		if err := gs.Serve(lis); err != nil {
			sugar.Errorf("gRPC serve: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	sugar.Infof("shutting down")
	gs.GracefulStop()
}
