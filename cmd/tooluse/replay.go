package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skosovsky/tooluse"
)

// turnSeparator on a line of its own ends one model message in a replay file.
const turnSeparator = "---"

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Dispatch native function calls from a JSONL file",
	Long: `Each line is one native call: {"id": "...", "name": "...", "arguments": "{...}"}.
A line containing only --- ends the current model message. Use - to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithInput(cmd, args[0], replay)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

// runWithInput wires signals, metrics and the console host around fn.
func runWithInput(cmd *cobra.Command, path string, fn func(context.Context, *tooluse.Driver, io.Reader) error) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.serveMetrics(ctx)

	in := io.Reader(os.Stdin)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	yes, _ := cmd.Flags().GetBool("yes")
	approve := a.cfg.AutoApproved
	if yes {
		approve = func(tooluse.ToolName) bool { return true }
	}
	host := newConsoleHost(os.Stdin, cmd.OutOrStdout(), a.logger, approve)
	task := newConsoleTask(a.cfg.Workdir, a.logger)

	runErr := fn(ctx, a.newDriver(task, host), in)
	if err := a.close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// replay feeds every call of r to d.
func replay(ctx context.Context, d *tooluse.Driver, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case turnSeparator:
			d.EndTurn()
			continue
		}
		var call tooluse.NativeCall
		if err := json.Unmarshal([]byte(line), &call); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := d.HandleNative(ctx, call); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	d.EndTurn()
	return nil
}
