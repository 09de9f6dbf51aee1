// Command tempuscached runs the in-memory cache server described by the
// wire protocol in internal/command: a cobra root command reads
// configuration (internal/config), wires up the logger, pool, ticker, and
// TCP server, and runs until SIGINT/SIGTERM.
//
// The signal/context/WaitGroup shutdown shape is grounded on
// amir0241-paqet's server.Start(), adapted from a packet-transport daemon
// to this line-protocol one.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tempuscache/tempuscached/internal/config"
	"github.com/tempuscache/tempuscached/internal/logging"
	"github.com/tempuscache/tempuscached/internal/pool"
	"github.com/tempuscache/tempuscached/internal/server"
	"github.com/tempuscache/tempuscached/internal/ticker"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "tempuscached",
		Short: "a volatile, in-memory key-value cache server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	if err := config.BindFlags(cmd, v); err != nil {
		panic(err)
	}

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger := logging.New(logging.Level(cfg.Verbosity))
	defer logger.Sync()
	logger.Infof("memory limit %d MiB, verbosity %d", cfg.MemoryLimitMB, cfg.Verbosity)

	p := pool.New()
	start := time.Now()
	now := func() int64 { return int64(time.Since(start) / time.Second) }

	tk := ticker.New(p, logger, cfg.MemoryLimitMB, now)
	tk.Start()
	defer tk.Stop()

	srv := server.New(p, logger, now)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Infof("shutdown signal received, draining connections")
		cancel()
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	logger.Infof("server shutdown complete")
	return nil
}
