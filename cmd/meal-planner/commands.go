package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"meal-planner/internal/database"
	"meal-planner/internal/metrics"
	"meal-planner/internal/shopping"
)

var cleanupDays int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the current shopping list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp()

		view := a.ShoppingList()
		fmt.Fprint(cmd.OutOrStdout(), formatList(view.Items))
		if len(view.Archive) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d checked off\n", len(view.Archive))
		}
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch-ingredients <url>",
	Short: "Print the ingredients found on a recipe page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, release, err := newClipper(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer release()

		result, err := c.FetchIngredients(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch ingredients: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, result.Title)
		for _, line := range result.Ingredients {
			name, quantity := shopping.ParseIngredient(line)
			fmt.Fprintf(out, "  %-40s %s\n", name, quantity)
		}
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Remove old LLM usage records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewDB(cfg.DatabasePath, logger.Named("database"))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		affected, err := metrics.NewStore(db.SQL).Cleanup(cmd.Context(), cleanupDays)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
		return nil
	},
}

// formatList renders items grouped by store for the terminal.
func formatList(items []shopping.ShoppingItem) string {
	if len(items) == 0 {
		return "Nothing to buy.\n"
	}
	shopping.SortItems(items)

	var sb strings.Builder
	store := ""
	for i, item := range items {
		if i == 0 || item.Store != store {
			if i > 0 {
				sb.WriteString("\n")
			}
			store = item.Store
			sb.WriteString(store + "\n")
		}
		line := "  - " + item.Name
		if item.Quantity != "" {
			line += " (" + item.Quantity + ")"
		}
		if item.Meal != "" {
			line += " [" + item.Meal + "]"
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
