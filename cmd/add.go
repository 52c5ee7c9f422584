package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryansoph/taskflow/internal/account"
	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/task"
	"github.com/bryansoph/taskflow/internal/ui"
	"github.com/bryansoph/taskflow/models"
)

var (
	addDescription string
	addDeadline    string
	addPriority    string
	addVisibility  string
	addAssignees   []string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a new task (manager only)",
	Long: `Create a new task. Tasks start in the pending state with an empty
progress log. Private tasks are visible only to their assignees and to
managers; public tasks are visible to everyone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("add")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		actor, err := requireManager(docs)
		if err != nil {
			return friendlyError(err)
		}

		deadline, err := parseDeadline(addDeadline)
		if err != nil {
			return err
		}
		accounts := newAccountService(docs)
		assignees, err := resolveAssignees(accounts, addAssignees)
		if err != nil {
			return err
		}

		created, err := newTaskService(docs).Create(actor, task.CreateInput{
			Title:       args[0],
			Description: addDescription,
			Deadline:    deadline,
			Priority:    models.TaskPriority(addPriority),
			Visibility:  models.TaskVisibility(addVisibility),
			AssignedTo:  assignees,
		})
		if err != nil {
			return friendlyError(err)
		}

		roster, err := accounts.List()
		if err != nil {
			return err
		}
		fmt.Println(ui.StyleSuccess.Render("✓") + " Created task " + ui.StyleTitle.Render(created.Title))
		fmt.Printf("  ID: %s\n", created.ID)
		fmt.Printf("  Assigned: %s\n", account.AssigneeLabel(roster, created.AssignedTo))
		if created.Deadline != nil {
			fmt.Printf("  Deadline: %s\n", created.Deadline.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "task description (required)")
	addCmd.Flags().StringVar(&addDeadline, "deadline", "", "deadline, e.g. 2026-09-15 or 2026-09-15T17:00")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "medium", "priority (low, medium, high)")
	addCmd.Flags().StringVar(&addVisibility, "visibility", "private", "visibility (public, private)")
	addCmd.Flags().StringSliceVarP(&addAssignees, "assign", "a", nil, "assignee handles or ids (repeatable)")
	_ = addCmd.MarkFlagRequired("description")
	rootCmd.AddCommand(addCmd)
}
