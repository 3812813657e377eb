package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridworks/sheetkernel/internal/connection"
	"github.com/gridworks/sheetkernel/internal/hostcfg"
	"github.com/gridworks/sheetkernel/internal/infrastructure/config"
	"github.com/gridworks/sheetkernel/internal/infrastructure/monitoring"
	"github.com/gridworks/sheetkernel/internal/launcher"
	"github.com/gridworks/sheetkernel/internal/logging"
	"github.com/gridworks/sheetkernel/internal/registry"
	"github.com/gridworks/sheetkernel/internal/server"
)

var launchFlags struct {
	connectionFile string
	hostConfig     string
	workDir        string
	timeout        time.Duration
	usePTY         bool
	statusAddr     string
	wait           bool
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launch a notebook server against a kernel connection file",
	Long: `Launches a Jupyter notebook server bound to an existing kernel
connection file and prints the server URL once it is reachable. The
server is killed when sheetkernel exits.`,
	RunE: runLaunch,
}

func init() {
	launchCmd.Flags().StringVarP(&launchFlags.connectionFile, "connection-file", "f", "", "kernel connection file the server binds to (generated if omitted)")
	launchCmd.Flags().StringVar(&launchFlags.hostConfig, "host-config", "", "host config file consulted for the connection directory")
	launchCmd.Flags().StringVarP(&launchFlags.workDir, "cwd", "d", "", "working directory for the notebook server")
	launchCmd.Flags().DurationVarP(&launchFlags.timeout, "timeout", "t", 0, "how long to wait for the server URL")
	launchCmd.Flags().BoolVar(&launchFlags.usePTY, "pty", false, "spawn the server under a pseudo-terminal")
	launchCmd.Flags().StringVar(&launchFlags.statusAddr, "status-addr", "", "serve /status and /metrics on this address")
	launchCmd.Flags().BoolVarP(&launchFlags.wait, "wait", "w", true, "keep running until interrupted, then kill the server")
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	cfg := config.LoadOrDefault()

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	promRegistry := prometheus.NewRegistry()
	metrics := monitoring.NewMetricsWith(promRegistry)

	procs := registry.NewManager(logger.Named("registry")).WithMetrics(metrics)
	// Best-effort guarantee: whatever happens below, no child outlives us.
	defer procs.KillAll()

	launch := launcher.New(procs, cfg.Launcher, logger.Named("launcher")).WithMetrics(metrics)

	if launchFlags.statusAddr != "" {
		statusSrv := server.New(nil, procs, metrics, promRegistry, logger.Named("server"))
		go func() {
			if err := statusSrv.Run(launchFlags.statusAddr); err != nil {
				logger.Warn("status server stopped", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			statusSrv.Shutdown(ctx)
		}()
	}

	connFile := launchFlags.connectionFile
	if connFile == "" {
		var hostCfg hostcfg.Reader = hostcfg.Empty
		if launchFlags.hostConfig != "" {
			hostCfg, err = hostcfg.LoadFile(launchFlags.hostConfig)
			if err != nil {
				return err
			}
		}
		home, _ := os.UserHomeDir()
		resolver := connection.NewResolver(hostCfg,
			filepath.Join(home, ".jupyter", "runtime"), logger.Named("connection"))
		if connFile, err = resolver.ResolveFile(); err != nil {
			return err
		}
		logger.Info("generated connection file path", zap.String("path", connFile))
	}

	child, url, err := launch.Launch(cmd.Context(), launcher.Options{
		ConnectionFile: connFile,
		WorkDir:        launchFlags.workDir,
		Timeout:        launchFlags.timeout,
		UsePTY:         launchFlags.usePTY,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), url)

	if !launchFlags.wait {
		return nil
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	logger.Info("notebook server running; press Ctrl-C to stop",
		zap.Int("pid", child.PID()))
	<-sigChan

	logger.Info("shutting down")
	return nil
}
