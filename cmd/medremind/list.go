package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/spf13/cobra"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print reminders as JSON")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted reminders",
	Long: `List the reminders stored in the database in creation order.

Examples:
  medremind list
  medremind list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

type listedReminder struct {
	ID     string       `json:"id"`
	Text   string       `json:"text"`
	DueAt  time.Time    `json:"due_at"`
	Status model.Status `json:"status"`
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.store.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load reminders: %w", err)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		items := make([]listedReminder, 0, len(rows))
		for _, r := range rows {
			items = append(items, listedReminder{ID: r.ID, Text: r.Text, DueAt: r.DueAt, Status: r.Status})
		}
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No reminders.")
		return nil
	}
	for _, r := range rows {
		fmt.Fprintf(out, "%s  %-9s  %s  %s\n", r.ID, r.Status, r.DueAt.Local().Format("2006-01-02 15:04"), r.Text)
	}
	return nil
}
