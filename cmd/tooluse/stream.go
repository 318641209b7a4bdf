package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/legacy"
)

var streamCmd = &cobra.Command{
	Use:   "stream FILE",
	Short: "Stream a tag-delimited model message through the legacy parser",
	Long: `The file is one assistant message in the inline tag format. It is fed to the
parser in chunks of --chunk-size bytes so partial snapshots are dispatched the way they
would be while a model is still writing. Use - to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, _ := cmd.Flags().GetInt("chunk-size")
		if size <= 0 {
			return fmt.Errorf("chunk-size must be positive, got %d", size)
		}
		return runWithInput(cmd, args[0], func(ctx context.Context, d *tooluse.Driver, r io.Reader) error {
			return streamMessage(ctx, d, r, size, cmd.OutOrStdout())
		})
	},
}

func init() {
	streamCmd.Flags().Int("chunk-size", 16, "Bytes fed to the parser per chunk")
	rootCmd.AddCommand(streamCmd)
}

// streamMessage reads r in chunks of size and dispatches the tool uses it contains.
// Completed text blocks are written to out.
func streamMessage(ctx context.Context, d *tooluse.Driver, r io.Reader, size int, out io.Writer) error {
	s := legacy.NewStream()
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if herr := dispatchBlocks(ctx, d, s.Feed(string(buf[:n])), out); herr != nil {
				return herr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	if err := dispatchBlocks(ctx, d, s.Close(), out); err != nil {
		return err
	}
	d.EndTurn()
	return nil
}

func dispatchBlocks(ctx context.Context, d *tooluse.Driver, blocks []legacy.Block, out io.Writer) error {
	for _, b := range blocks {
		if !b.IsTool() {
			if !b.Partial {
				fmt.Fprintln(out, b.Text)
			}
			continue
		}
		if err := d.Handle(ctx, b.ToolUse); err != nil {
			return err
		}
	}
	return nil
}
