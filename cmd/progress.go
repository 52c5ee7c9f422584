package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/ui"
	"github.com/bryansoph/taskflow/models"
)

var (
	progressText string
	progressLink string
)

var progressCmd = &cobra.Command{
	Use:     "progress [task-id]",
	Aliases: []string{"report"},
	Short:   "Append a progress report to a task",
	Long: `Append a progress report. Anyone who can see the task can report on
it. Reporting on a pending task moves it to in-progress in the same
write. Submitting with no text and no link changes nothing.

When no task id is given, pick from your open tasks interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("progress")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		actor, err := currentAccount(docs)
		if err != nil {
			return err
		}

		svc := newTaskService(docs)
		var id string
		if len(args) == 1 {
			id = args[0]
		} else {
			tasks, err := svc.List(actor)
			if err != nil {
				return err
			}
			open := filterTasks(tasks, func(t models.Task) bool { return !t.Status.Terminal() })
			picked, err := selectTaskInteractive(open, "Report progress on")
			if err != nil {
				return err
			}
			id = picked.ID
		}

		before, err := svc.Get(id)
		if err != nil {
			return friendlyError(err)
		}
		updated, err := svc.ReportProgress(actor, id, progressText, progressLink)
		if err != nil {
			return friendlyError(err)
		}

		if len(updated.ProgressLogs) == len(before.ProgressLogs) {
			fmt.Println("Nothing to report: provide --text or --link.")
			return nil
		}
		fmt.Println(ui.StyleSuccess.Render("✓") + " Progress recorded on " + ui.StyleTitle.Render(updated.Title))
		if before.Status == models.StatusPending && updated.Status == models.StatusInProgress {
			fmt.Println(ui.StyleSubtle.Render("  Task moved to in-progress."))
		}
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:     "done [task-id]",
	Aliases: []string{"complete"},
	Short:   "Mark a task completed (manager only)",
	Long: `Mark a task completed. Completion is a manager's call and needs no
preceding progress; a pending task can be closed directly. Completing an
already completed task changes nothing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("done")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		actor, err := requireManager(docs)
		if err != nil {
			return friendlyError(err)
		}

		svc := newTaskService(docs)
		var id string
		if len(args) == 1 {
			id = args[0]
		} else {
			tasks, err := svc.List(actor)
			if err != nil {
				return err
			}
			open := filterTasks(tasks, func(t models.Task) bool { return !t.Status.Terminal() })
			picked, err := selectTaskInteractive(open, "Mark completed")
			if err != nil {
				return err
			}
			id = picked.ID
		}

		t, err := svc.MarkComplete(actor, id)
		if err != nil {
			return friendlyError(err)
		}
		fmt.Println(ui.StyleSuccess.Render("✓") + " Completed " + ui.StyleTitle.Render(t.Title))
		return nil
	},
}

func init() {
	progressCmd.Flags().StringVarP(&progressText, "text", "t", "", "what you did")
	progressCmd.Flags().StringVarP(&progressLink, "link", "l", "", "link to the work (PR, document, ...)")
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(doneCmd)
}
