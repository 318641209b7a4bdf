package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skosovsky/tooluse"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List tool names and how they are served",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOOL\tNATIVE ARGS\tHANDLER")
		for _, name := range tooluse.ToolNames() {
			typed := "-"
			if tooluse.IsTyped(name) {
				typed = "typed"
			}
			handler := "-"
			if _, ok := a.registry.Handler(name); ok {
				handler = "registered"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, typed, handler)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
