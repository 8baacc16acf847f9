package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfadeev/ttrack/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ttrack HTTP server",
	Long: `Serve the REST API over the local database. CLI clients on other
machines point their .timecfg server.url at it.

Examples:
  ttrack serve                # Listen on :9000
  ttrack serve --addr :8080`,
	Run: withDB(func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")

		fmt.Printf("Listening on %s\n", addr)
		srv := server.NewServer(trackerSvc, reportSvc)
		if err := srv.Run(addr); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}),
}

func init() {
	serveCmd.Flags().String("addr", ":9000", "Listen address")
}
