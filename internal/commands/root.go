package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mfadeev/ttrack/internal/clock"
	"github.com/mfadeev/ttrack/internal/db"
	"github.com/mfadeev/ttrack/internal/report"
	"github.com/mfadeev/ttrack/internal/tracker"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ttrack",
	Short: "A per-project work session time tracker",
	Long: `ttrack tracks work sessions per project: start and stop sessions, take
breaks, link commits, and generate reports. Project settings come from a
.timecfg file discovered upward from the working directory.`,
}

var (
	trackerSvc *tracker.Tracker
	reportSvc  *report.Aggregator
)

// initServices opens the database and panics on error
func initServices() {
	path := os.Getenv("TTRACK_DB")
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			panic(err)
		}
	}
	gdb, err := db.Open(path)
	if err != nil {
		panic(err)
	}
	trackerSvc = tracker.New(gdb, clock.System{})
	reportSvc = report.New(gdb, clock.System{})
}

// withDB wraps a command function to initialize the database first
func withDB(fn func(*cobra.Command, []string)) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		initServices()
		fn(cmd, args)
	}
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ttrack %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(breakCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
