// File: cli/root.go
package cli

import (
	"github.com/spf13/cobra"

	"github.com/protean-io/protean/system"
	"github.com/protean-io/protean/utils"
)

var rootCmd = &cobra.Command{
	Use:   "protean",
	Short: "Actors that re-program themselves from natural language",
	Long: `Protean runs a system of hot-swappable actors. A free-text description
is turned into a validated behavior by a chain of generation backends,
installed atomically into a live actor, gated by capability mediation, and
recorded in an append-only event log.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newSystem loads configuration and assembles the runtime.
func newSystem() (*system.System, error) {
	cfg, err := utils.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := utils.NewLogger(cfg.LogLevel)
	return system.New(cfg, logger), nil
}
