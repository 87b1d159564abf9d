package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flowgenius/flowdex/internal/domain"
)

// ToolsCmd creates the tools command group.
func ToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage the tool registry",
	}

	cmd.AddCommand(toolsListCmd())
	cmd.AddCommand(toolsAddCmd())

	return cmd
}

func toolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			outputJSON, _ := cmd.Flags().GetBool("output")

			rt, err := newRuntime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			tools, err := rt.Tools.List(ctx)
			if err != nil {
				return err
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(tools)
			}

			if len(tools) == 0 {
				fmt.Println("no tools registered")
				return nil
			}
			for _, t := range tools {
				marker := color.GreenString("●")
				if !t.IsActive {
					marker = color.RedString("○")
				}
				fmt.Printf("%s %-24s %s\n", marker, t.ID, t.Name)
			}
			return nil
		},
	}
}

func toolsAddCmd() *cobra.Command {
	var (
		name        string
		description string
		categories  []string
	)

	cmd := &cobra.Command{
		Use:   "add <tool-id>",
		Short: "Register a new tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tool := &domain.Tool{
				ID:          args[0],
				Name:        name,
				Description: description,
				Categories:  categories,
				IsActive:    true,
				CreatedAt:   time.Now().UTC(),
			}
			if tool.Name == "" {
				tool.Name = tool.ID
			}
			if err := domain.ValidateTool(tool); err != nil {
				return err
			}

			rt, err := newRuntime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Tools.Create(ctx, tool); err != nil {
				return err
			}

			color.Green("✓ registered tool %s", tool.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name (default: the tool ID)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Tool description")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Category, repeatable")

	return cmd
}
