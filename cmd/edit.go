package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/task"
	"github.com/bryansoph/taskflow/internal/ui"
	"github.com/bryansoph/taskflow/models"
)

var (
	editTitle         string
	editDescription   string
	editDeadline      string
	editClearDeadline bool
	editPriority      string
	editVisibility    string
	editAssignees     []string
	editClearAssign   bool
)

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit a task's descriptive fields (manager only)",
	Long: `Edit a task. Only the flags you pass change; everything else,
including the status and the progress log, is left exactly as it was.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("edit")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		actor, err := requireManager(docs)
		if err != nil {
			return friendlyError(err)
		}

		fields := task.EditFields{ClearDeadline: editClearDeadline}
		if cmd.Flags().Changed("title") {
			fields.Title = &editTitle
		}
		if cmd.Flags().Changed("description") {
			fields.Description = &editDescription
		}
		if cmd.Flags().Changed("deadline") {
			deadline, err := parseDeadline(editDeadline)
			if err != nil {
				return err
			}
			fields.Deadline = deadline
		}
		if cmd.Flags().Changed("priority") {
			p := models.TaskPriority(editPriority)
			fields.Priority = &p
		}
		if cmd.Flags().Changed("visibility") {
			v := models.TaskVisibility(editVisibility)
			fields.Visibility = &v
		}
		if editClearAssign {
			empty := []string{}
			fields.AssignedTo = &empty
		} else if cmd.Flags().Changed("assign") {
			ids, err := resolveAssignees(newAccountService(docs), editAssignees)
			if err != nil {
				return err
			}
			fields.AssignedTo = &ids
		}

		if err := newTaskService(docs).Edit(actor, args[0], fields); err != nil {
			return friendlyError(err)
		}
		fmt.Println(ui.StyleSuccess.Render("✓") + " Updated task " + ui.TruncateID(args[0]))
		return nil
	},
}

func init() {
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "new title")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "new description")
	editCmd.Flags().StringVar(&editDeadline, "deadline", "", "new deadline, e.g. 2026-09-15")
	editCmd.Flags().BoolVar(&editClearDeadline, "clear-deadline", false, "remove the deadline")
	editCmd.Flags().StringVarP(&editPriority, "priority", "p", "", "new priority (low, medium, high)")
	editCmd.Flags().StringVar(&editVisibility, "visibility", "", "new visibility (public, private)")
	editCmd.Flags().StringSliceVarP(&editAssignees, "assign", "a", nil, "replace assignees with these handles or ids")
	editCmd.Flags().BoolVar(&editClearAssign, "clear-assign", false, "remove all assignees")
	rootCmd.AddCommand(editCmd)
}
