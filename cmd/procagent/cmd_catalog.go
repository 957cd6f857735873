package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"procagent/internal/process"
)

// promptCmd prints the catalog prompt
var promptCmd = &cobra.Command{
	Use:   "prompt [instruction]",
	Short: "Print the catalog prompt sent to the brain in synthesize mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), cfg, false)
		if err != nil {
			return err
		}
		instruction := strings.Join(args, " ")
		if instruction == "" {
			instruction = cfg.Agent.Instruction
		}
		text, err := a.renderer().Render(instruction)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}

// processesCmd lists registered processes
var processesCmd = &cobra.Command{
	Use:   "processes",
	Short: "List registered processes and the context values they need",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), cfg, false)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		newResolver := a.resolvers()
		for _, p := range a.processes.All() {
			res, err := newResolver().WithProcess(p)
			if err != nil {
				return fmt.Errorf("process %s: %w", p.Key, err)
			}
			reqs := res.Build()
			fmt.Fprintf(out, "%s (v%d) - %s\n", p.Key, p.Version, p.Description)
			fmt.Fprintf(out, "  required: %s\n", strings.Join(reqs.RequiredKeys(), ", "))
			fmt.Fprintf(out, "  optional: %s\n", strings.Join(reqs.OptionalKeys(), ", "))
		}
		return nil
	},
}

// validateCmd checks process documents
var validateCmd = &cobra.Command{
	Use:   "validate [file.json...]",
	Short: "Validate process documents against the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), cfg, false)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		invalid := 0
		for _, path := range args {
			p, err := process.LoadFile(path)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", path, err)
				invalid++
				continue
			}
			errs := a.validator.Validate(p)
			if len(errs) == 0 {
				fmt.Fprintf(out, "%s: ok\n", path)
				continue
			}
			invalid++
			for _, e := range errs {
				fmt.Fprintf(out, "%s: %s\n", path, e)
			}
		}
		if invalid > 0 {
			return &exitError{code: 1, err: fmt.Errorf("%d of %d processes invalid", invalid, len(args))}
		}
		return nil
	},
}
