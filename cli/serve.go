// File: cli/serve.go
package cli

import (
	"github.com/spf13/cobra"

	"github.com/protean-io/protean/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP + WebSocket gateway",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sys, err := newSystem()
		if err != nil {
			return err
		}
		defer sys.Shutdown()

		return server.New(sys).ListenAndServe(sys.Config.HTTPAddr)
	},
}
