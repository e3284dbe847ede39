package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/giantswarm/browserenv"
	"github.com/giantswarm/browserenv/internal/metrics"
)

// metricsShutdownTimeout bounds the metrics server shutdown on exit.
const metricsShutdownTimeout = 5 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "browserenv",
		Short:         "Run BrowserMob Proxy and Selenium for end-to-end tests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	registerFlags(root.PersistentFlags())
	root.AddCommand(newInstallCmd(), newUpCmd())
	return root
}

// runtime is what every subcommand needs: the merged config, a logger and
// an Env built from both.
type runtime struct {
	cfg      fileConfig
	log      *slog.Logger
	registry *prometheus.Registry
	env      *browserenv.Env

	// metricsAddr is the bound metrics address once serving.
	metricsAddr string
}

func setup(cmd *cobra.Command, extra ...browserenv.Option) (*runtime, error) {
	fs := cmd.Flags()
	path, err := fs.GetString(flagConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(fs, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	rt := &runtime{cfg: cfg, log: cfg.newLogger(cmd.ErrOrStderr())}
	opts := append(cfg.options(), browserenv.WithLogger(rt.log))
	if cfg.MetricsAddr != "" {
		rt.registry = prometheus.NewRegistry()
		rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, browserenv.WithRegisterer(rt.registry))
	}
	opts = append(opts, extra...)

	rt.env, err = browserenv.New(opts...)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// serveMetrics starts the metrics endpoint when configured. The returned
// func shuts it down.
func (rt *runtime) serveMetrics() (func(), error) {
	if rt.registry == nil {
		return func() {}, nil
	}
	srv := metrics.NewServer(rt.cfg.MetricsAddr, rt.registry, rt.log)
	if err := srv.Start(); err != nil {
		return nil, err
	}
	rt.metricsAddr = srv.Addr()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			rt.log.Warn("metrics server shutdown", "error", err)
		}
	}, nil
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download BrowserMob Proxy and the Selenium server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := rt.env.Install(ctx); err != nil {
				return err
			}
			for name, st := range rt.env.Status() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, st)
			}
			return nil
		},
	}
}

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Start both services and keep them running until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			crashed := make(chan string, 2)
			rt, err := setup(cmd, browserenv.WithStateObserver(func(service string, _, to browserenv.State) {
				if to == browserenv.Crashed {
					select {
					case crashed <- service:
					default:
					}
				}
			}))
			if err != nil {
				return err
			}
			shutdownMetrics, err := rt.serveMetrics()
			if err != nil {
				return err
			}
			defer shutdownMetrics()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return up(ctx, rt, cmd.OutOrStdout(), crashed)
		},
	}
}

// up starts the environment, prints its addresses and blocks until ctx ends
// or a service crashes. Both services are stopped before it returns.
func up(ctx context.Context, rt *runtime, out io.Writer, crashed <-chan string) (err error) {
	defer func() {
		report, stopErr := rt.env.Stop(context.WithoutCancel(ctx))
		for _, r := range report {
			rt.log.Info("service stopped", "service", r.Service, "state", r.State, "error", r.Err)
		}
		err = errors.Join(err, stopErr)
	}()

	sess, err := rt.env.Start(ctx)
	if err != nil {
		return err
	}
	addrs, err := rt.env.Addresses()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "session:           %s\n", sess.ID)
	fmt.Fprintf(out, "browsermob api:    http://%s\n", addrs.ProxyAPI)
	fmt.Fprintf(out, "automation server: %s\n", addrs.AutomationServerURL())
	if rt.metricsAddr != "" {
		fmt.Fprintf(out, "metrics:           http://%s/metrics\n", rt.metricsAddr)
	}

	select {
	case <-ctx.Done():
		rt.log.Info("shutting down", "cause", context.Cause(ctx))
		return nil
	case service := <-crashed:
		return fmt.Errorf("%s: %w", service, browserenv.ErrCrashed)
	}
}
