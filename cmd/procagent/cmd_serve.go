package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"procagent/internal/agent"
	"procagent/internal/logging"
	"procagent/internal/process"
	"procagent/internal/server"
)

// serveCmd runs the HTTP mission API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP mission API",
	Long: `Starts the HTTP mission API on server.addr. When processes.watch is set
the process directory is reloaded whenever a document changes.

Routes:
  POST /v1/missions        {"mission": "...", "stimulus": "...", "mode": "select"}
  GET  /v1/processes
  GET  /v1/processes/:key
  GET  /v1/journal?limit=N
  GET  /v1/journal/:id
  GET  /v1/stats
  GET  /v1/usage
  GET  /healthz`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	agents := map[agent.Mode]server.Runner{}
	for _, mode := range []agent.Mode{agent.ModeSelect, agent.ModeSynthesize} {
		r, err := a.agent(mode)
		if err != nil {
			return err
		}
		agents[mode] = r
	}
	deps := server.Deps{
		Agents:      agents,
		DefaultMode: agent.Mode(cfg.Agent.Mode),
		Processes:   a.processes,
	}
	if a.journal != nil {
		deps.History = a.journal
	}
	if a.usage != nil {
		deps.Usage = a.usage
	}
	handler := server.New(cfg.Server, deps)

	var watcher *process.Watcher
	if cfg.Processes.Watch {
		watcher, err = process.NewWatcher(cfg.Processes.Directory, a.processes, a.validator)
		if err != nil {
			return err
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return server.ListenAndServe(egCtx, cfg, handler)
	})
	if watcher != nil {
		eg.Go(func() error {
			defer watcher.Stop()
			if err := watcher.Start(egCtx); err != nil {
				return err
			}
			<-egCtx.Done()
			return nil
		})
	}

	logging.Boot("serving on %s", cfg.Server.Addr)
	return eg.Wait()
}
