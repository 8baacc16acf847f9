package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfadeev/ttrack/internal/config"
	"github.com/mfadeev/ttrack/internal/tui"
)

// loadConfig resolves the .timecfg governing the working directory.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.FromDir(cwd)
}

// resolveProject returns the --project override or the configured name.
func resolveProject(cmd *cobra.Command, cfg *config.Config) string {
	if project, _ := cmd.Flags().GetString("project"); project != "" {
		return project
	}
	return cfg.Project.Name
}

var startCmd = &cobra.Command{
	Use:   "start [description]",
	Short: "Start a work session",
	Long: `Start a work session for the current project. Opens an interactive timer
by default, use --no-ui for a simple start. A session already running for the
project is stopped automatically.

Examples:
  ttrack start "Fix login bug"              # Start with interactive timer
  ttrack start "Fix login bug" --no-ui      # Start without UI
  ttrack start "Write docs" -c docs         # Category alias from .timecfg`,
	Args: cobra.MaximumNArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		category, _ := cmd.Flags().GetString("category")
		category = cfg.ResolveCategory(category)
		project := resolveProject(cmd, cfg)
		noUI, _ := cmd.Flags().GetBool("no-ui")

		description := ""
		if len(args) > 0 {
			description = args[0]
		}
		if description == "" {
			if noUI {
				fmt.Println("Error: description is required with --no-ui")
				return
			}
			var ok bool
			description, ok, err = tui.RunStartTUI(project, category)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			if !ok {
				return
			}
		}

		result, err := trackerSvc.StartSession(project, description, category, cfg.User)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if noUI {
			fmt.Printf("⏱️  Started tracking %s: %s [%s]\n", result.Project, result.Description, result.Category)
			fmt.Printf("Started at: %s\n", result.StartTime.Format("15:04:05"))
		} else {
			if err := tui.RunTimerTUI(trackerSvc, result); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		}
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the current work session",
	Run: withDB(func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		result, err := trackerSvc.StopSession(resolveProject(cmd, cfg))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		duration := time.Duration(result.DurationMinutes) * time.Minute
		fmt.Printf("⏹️  Stopped session: %s\n", result.Description)
		fmt.Printf("Session duration: %s\n", formatDuration(duration))
	}),
}

var breakCmd = &cobra.Command{
	Use:   "break",
	Short: "Start or end a break in the current session",
	Long: `Toggle a break on the current session. The first call starts a break,
the second ends it. Break time is subtracted from the session duration.

Examples:
  ttrack break              # Start (or end) a break
  ttrack break -t lunch     # Start a lunch break`,
	Run: withDB(func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		breakType, _ := cmd.Flags().GetString("type")
		result, err := trackerSvc.ToggleBreak(resolveProject(cmd, cfg), breakType)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if result.Action == "started" {
			fmt.Printf("☕ Started %s at %s\n", result.BreakType, result.StartTime.Format("15:04:05"))
		} else {
			duration := time.Duration(*result.DurationMinutes) * time.Minute
			fmt.Printf("▶️  Ended %s after %s\n", result.BreakType, formatDuration(duration))
		}
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current tracking status",
	Run: withDB(func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		status, err := trackerSvc.Status(resolveProject(cmd, cfg))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if status.ActiveSession == nil {
			fmt.Printf("No active session for %s\n", status.Project)
		} else {
			elapsed := time.Since(status.ActiveSession.StartTime)
			fmt.Printf("⏱️  Tracking %s: %s [%s]\n", status.Project,
				status.ActiveSession.Description, status.ActiveSession.Category)
			fmt.Printf("Started at: %s\n", status.ActiveSession.StartTime.Format("15:04:05"))
			fmt.Printf("Elapsed time: %s\n", formatDuration(elapsed))
			if status.ActiveBreak != nil {
				fmt.Printf("☕ On %s since %s\n", status.ActiveBreak.Type,
					status.ActiveBreak.StartTime.Format("15:04:05"))
			}
		}
		fmt.Printf("Today: %.2fh over %d session(s)\n",
			status.DailySummary.TotalHours, status.DailySummary.Sessions)
	}),
}

var commitCmd = &cobra.Command{
	Use:   "commit <hash> <message>",
	Short: "Link a git commit to the current session",
	Args:  cobra.ExactArgs(2),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		result, err := trackerSvc.LinkCommit(resolveProject(cmd, cfg), args[0], args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("🔗 Linked commit %s to session #%d\n", result.CommitHash, result.SessionID)
	}),
}

func init() {
	startCmd.Flags().Bool("no-ui", false, "Start session without interactive timer")
	startCmd.Flags().StringP("category", "c", "", "Session category (or a .timecfg alias)")

	for _, cmd := range []*cobra.Command{startCmd, stopCmd, breakCmd, statusCmd, commitCmd} {
		cmd.Flags().StringP("project", "p", "", "Project name (overrides .timecfg)")
	}
	breakCmd.Flags().StringP("type", "t", "", "Break type (coffee, lunch, ...)")
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}
