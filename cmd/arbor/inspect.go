package main

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <document-id>",
	Short: "Render a stored document in the terminal",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		logger := newLogger(cmd)

		reg := registry.New(newStore(cmd), registry.WithLogger(logger))
		doc, err := reg.GetOrOpen(cmd.Context(), id)
		if err != nil {
			fmt.Printf("Error opening document: %v\n", err)
			os.Exit(1)
		}

		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			fmt.Print(graph.GenerateMermaid(doc.ID(), doc.Serialize()))
			return
		}

		tui.PrintBanner(arbor.Version)

		var actions []string
		cursor := -1
		if stack := doc.History(); stack != nil {
			actions = stack.Names()
			cursor = stack.Cursor()
		}

		markdown := tui.DocumentMarkdown(doc.ID(), doc.Serialize(), actions, cursor)
		render := tui.NewRenderer()
		out, err := render(markdown)
		if err != nil {
			// Fall back to the raw markdown rather than failing the command.
			out = markdown
		}
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("mermaid", false, "Emit a Mermaid flowchart instead of the rendered summary")
}
