package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"procagent/internal/agent"
	"procagent/internal/logging"
)

var (
	performMode     string
	performMission  string
	performStimulus string
)

// performCmd runs one mission
var performCmd = &cobra.Command{
	Use:   "perform",
	Short: "Perform one mission",
	Long: `Asks the brain to handle a mission and runs the resulting process.

Exit status is 0 on SUCCESS, 2 on INSUFFICIENT_PROCESSING_FAILURE and 1 on
any error.

Example:
  procagent perform --mission "Import customer record" --stimulus "nightly batch"`,
	RunE: runPerform,
}

// batchCmd runs a file of missions concurrently
var batchCmd = &cobra.Command{
	Use:   "batch [file.yaml]",
	Short: "Perform every mission listed in a YAML file",
	Long: `Runs the missions of a YAML file concurrently, bounded by
agent.batch_concurrency. Every mission gets its own resolver and context.

File format:
  missions:
    - mission: Import customer record
      stimulus: nightly batch
      mode: select`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	performCmd.Flags().StringVarP(&performMode, "mode", "m", "", "select or synthesize (default from config)")
	performCmd.Flags().StringVar(&performMission, "mission", "", "The desired outcome (required)")
	performCmd.Flags().StringVar(&performStimulus, "stimulus", "", "Why the agent is invoked")
	_ = performCmd.MarkFlagRequired("mission")
}

// signalContext bounds a command by --timeout and SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}

func modeOrDefault(mode string) agent.Mode {
	if mode == "" {
		return agent.Mode(cfg.Agent.Mode)
	}
	return agent.Mode(mode)
}

func runPerform(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.agent(modeOrDefault(performMode))
	if err != nil {
		return err
	}
	report, err := r.Run(ctx, performMission, performStimulus)
	if printErr := printJSON(cmd.OutOrStdout(), report); printErr != nil {
		return printErr
	}
	if err != nil {
		return &exitError{code: report.Result.ExitCode(), err: err}
	}
	if report.Result != agent.Success {
		return &exitError{code: report.Result.ExitCode()}
	}
	return nil
}

// BatchFile lists missions for the batch command.
type BatchFile struct {
	Missions []BatchMission `yaml:"missions"`
}

// BatchMission is one entry of a batch file.
type BatchMission struct {
	Mission  string `yaml:"mission"`
	Stimulus string `yaml:"stimulus"`
	Mode     string `yaml:"mode,omitempty"`
}

type batchLine struct {
	Index  int           `json:"index"`
	Report *agent.Report `json:"report,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func readBatch(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f BatchFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	for i, m := range f.Missions {
		if m.Mission == "" {
			return nil, fmt.Errorf("batch entry %d has no mission", i)
		}
	}
	return &f, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	f, err := readBatch(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	runners := map[agent.Mode]runner{}
	for _, m := range f.Missions {
		mode := modeOrDefault(m.Mode)
		if _, ok := runners[mode]; ok {
			continue
		}
		if runners[mode], err = a.agent(mode); err != nil {
			return err
		}
	}

	limit := cfg.Agent.BatchConcurrency
	if limit <= 0 {
		limit = 1
	}
	lines := make([]batchLine, len(f.Missions))
	var mu sync.Mutex
	worst := agent.Success

	var eg errgroup.Group
	eg.SetLimit(limit)
	for i, m := range f.Missions {
		i, m := i, m
		eg.Go(func() error {
			report, err := runners[modeOrDefault(m.Mode)].Run(ctx, m.Mission, m.Stimulus)
			line := batchLine{Index: i, Report: report}
			if err != nil {
				line.Error = err.Error()
			}
			mu.Lock()
			lines[i] = line
			if severity(report.Result) > severity(worst) {
				worst = report.Result
			}
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	for _, line := range lines {
		if err := printJSONLine(cmd.OutOrStdout(), line); err != nil {
			return err
		}
	}
	logging.Agent("batch finished: %d missions, worst result %s", len(lines), worst)
	if worst != agent.Success {
		return &exitError{code: worst.ExitCode()}
	}
	return nil
}

// severity orders results so a batch reports its worst outcome.
func severity(r agent.Result) int {
	switch r {
	case agent.Success:
		return 0
	case agent.InsufficientProcessingFailure:
		return 1
	default:
		return 2
	}
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
