package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/ui"
)

var crashLogsCmd = &cobra.Command{
	Use:    "crash-logs",
	Short:  "List recorded crash logs",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetBasePath(GetConfig().Project.RootDir)

		logs, err := logger.ListCrashLogs()
		if err != nil {
			return fmt.Errorf("failed to list crash logs: %w", err)
		}
		if len(logs) == 0 {
			fmt.Println("No crash logs.")
			return nil
		}
		for _, path := range logs {
			fmt.Println(path)
		}
		fmt.Println(ui.StyleSubtle.Render(fmt.Sprintf("%d crash log(s)", len(logs))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(crashLogsCmd)
}
