package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mfadeev/ttrack/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Create a .timecfg for the current directory",
	Long: `Write a starter .timecfg in the current directory. The project name
defaults to the directory name.

Examples:
  ttrack init                          # Use the directory name
  ttrack init myproject --language go  # Name it and record the language`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		path := filepath.Join(cwd, config.FileName)
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Error: %s already exists\n", config.FileName)
			return
		}

		name := filepath.Base(cwd)
		if len(args) > 0 {
			name = args[0]
		}
		projType, _ := cmd.Flags().GetString("type")
		language, _ := cmd.Flags().GetString("language")
		framework, _ := cmd.Flags().GetString("framework")

		data, err := config.Starter(name, projType, language, framework)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Created %s for project %s\n", config.FileName, name)
	},
}

func init() {
	initCmd.Flags().String("type", "", "Project type (development, research, ...)")
	initCmd.Flags().String("language", "", "Primary language")
	initCmd.Flags().String("framework", "", "Primary framework")
}
