// Command medremind schedules medication reminders and shows them as local
// notifications. Without a subcommand it opens the terminal UI.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/medremind/internal/update"
	"github.com/spf13/cobra"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "medremind",
	Short: "Medication reminders with local notifications",
	Long: `medremind keeps a list of reminders and raises a local notification
when each one comes due.

Running medremind with no subcommand opens the terminal UI. Add a reminder
with "add <when> <text>", for example:

  add 30m Take vitamin D
  add 08:30 Blood pressure pill
  add 2026-03-10T21:00 Evening dose`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.medremind/config.yaml)")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(permissionCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	prompter := update.NewTeaPrompter()
	a, err := newApp(appOptions{prompter: prompter, logToFile: true})
	if err != nil {
		return err
	}
	defer a.Close()
	a.center.Start()

	program := tea.NewProgram(update.NewModel(a.controller, a.listener), tea.WithAltScreen())
	prompter.Attach(program.Send)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("medremind failed: %w", err)
	}
	return nil
}
