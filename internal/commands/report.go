package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [today|week|month]",
	Short: "Show a time report",
	Long: `Summarize completed sessions for a period. Weeks start on Monday.

Examples:
  ttrack report                   # Today
  ttrack report week              # Current week
  ttrack report month -p alpha    # Current month, one project only`,
	Args: cobra.MaximumNArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		period := "today"
		if len(args) > 0 {
			period = args[0]
		}
		project, _ := cmd.Flags().GetString("project")

		result, err := reportSvc.Generate(period, project)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("📊 Report for %s (%s to %s)\n", result.Period, result.StartDate, result.EndDate)
		fmt.Printf("Total: %.2fh over %d session(s)\n\n", result.TotalHours, result.TotalSessions)

		if len(result.Sessions) == 0 {
			fmt.Println("No completed sessions in this period.")
			return
		}

		fmt.Println("By category:")
		for category, hours := range result.CategoryBreakdown {
			fmt.Printf("  %-16s %6.2fh\n", category, hours)
		}
		fmt.Println("By project:")
		for name, hours := range result.ProjectBreakdown {
			fmt.Printf("  %-16s %6.2fh\n", name, hours)
		}

		fmt.Println("\nSessions:")
		for _, s := range result.Sessions {
			start, _ := time.Parse(time.RFC3339, s.StartTime)
			duration := time.Duration(s.DurationMinutes) * time.Minute
			fmt.Printf("  %s  %-10s %-8s %s (%s)\n",
				start.Format("Mon 15:04"), s.Project, s.Category, s.Description, formatDuration(duration))
		}
	}),
}

var projectsCmd = &cobra.Command{
	Use:   "projects [name]",
	Short: "List projects or show one project's totals",
	Long: `Without arguments, list all projects. With a name, show that project's
all-time totals with subproject time rolled in.`,
	Args: cobra.MaximumNArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			showProjectSummary(args[0])
			return
		}

		projects, err := trackerSvc.ListProjects()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if len(projects) == 0 {
			fmt.Println("No projects yet. Run 'ttrack start' to create one.")
			return
		}

		byID := map[uint]string{}
		for _, p := range projects {
			byID[p.ID] = p.Name
		}
		for _, p := range projects {
			line := fmt.Sprintf("  %-20s %-12s", p.Name, p.Type)
			if p.ParentID != nil {
				line += fmt.Sprintf(" ↳ %s", byID[*p.ParentID])
			}
			fmt.Println(line)
		}
	}),
}

func showProjectSummary(name string) {
	summary, err := reportSvc.Summary(name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("📁 %s (%s)\n", summary.Project, summary.Type)
	if summary.Parent != "" {
		fmt.Printf("Parent: %s\n", summary.Parent)
	}
	fmt.Printf("Own: %.2fh over %d session(s)\n", summary.OwnHours, summary.OwnSessions)
	if len(summary.Subprojects) > 0 {
		fmt.Println("Subprojects:")
		for _, sub := range summary.Subprojects {
			fmt.Printf("  %-20s %6.2fh  %d session(s)\n", sub.Name, sub.TotalHours, sub.TotalSessions)
		}
		fmt.Printf("Total with subprojects: %.2fh over %d session(s)\n",
			summary.TotalHours, summary.TotalSessions)
	}
}

func init() {
	reportCmd.Flags().StringP("project", "p", "", "Limit the report to one project")
}
