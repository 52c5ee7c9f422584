package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryansoph/taskflow/internal/account"
	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/stats"
	"github.com/bryansoph/taskflow/internal/task"
	"github.com/bryansoph/taskflow/internal/ui"
	"github.com/bryansoph/taskflow/models"
)

var (
	listStatus   string
	listPriority string
	listRecent   bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks visible to you",
	Long: `List tasks you are allowed to see: managers see everything, staff
see public tasks plus their own assignments. Overdue tasks are labelled
at display time; the stored status never changes on its own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("list")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		viewer, err := currentAccount(docs)
		if err != nil {
			return err
		}

		tasks, err := newTaskService(docs).List(viewer)
		if err != nil {
			return err
		}
		if listStatus != "" {
			tasks = filterTasks(tasks, func(t models.Task) bool { return string(t.Status) == listStatus })
		}
		if listPriority != "" {
			tasks = filterTasks(tasks, func(t models.Task) bool { return string(t.Priority) == listPriority })
		}
		if listRecent {
			tasks = stats.Recent(tasks, stats.RecentLimit)
		} else {
			sortTasksForList(tasks)
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		roster, err := newAccountService(docs).List()
		if err != nil {
			return err
		}
		renderTaskTable(tasks, roster, time.Now())
		return nil
	},
}

func filterTasks(tasks []models.Task, keep func(models.Task) bool) []models.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// sortTasksForList orders by deadline ascending, then creation time. Tasks
// without a deadline sink to the bottom.
func sortTasksForList(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].Deadline, tasks[j].Deadline
		switch {
		case a == nil && b == nil:
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}

func renderTaskTable(tasks []models.Task, roster []models.Account, now time.Time) {
	table := &ui.Table{
		Headers:  []string{"ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNED", "DEADLINE"},
		MaxWidth: 30,
	}
	for _, t := range tasks {
		display := stats.DisplayStatus(t, now)
		deadline := ""
		if t.Deadline != nil {
			deadline = t.Deadline.Local().Format("2006-01-02")
		}
		table.Rows = append(table.Rows, []string{
			ui.TruncateID(t.ID),
			t.Title,
			ui.StatusStyle(display).Render(display),
			ui.PriorityStyle(string(t.Priority)).Render(string(t.Priority)),
			account.AssigneeLabel(roster, t.AssignedTo),
			deadline,
		})
	}
	fmt.Println(table.Render())
	fmt.Println(ui.StyleSubtle.Render(fmt.Sprintf("%d task(s)", len(tasks))))
}

var showCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one task with its full progress log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("show")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		viewer, err := currentAccount(docs)
		if err != nil {
			return err
		}

		svc := newTaskService(docs)
		t, err := svc.Get(args[0])
		if err != nil {
			return friendlyError(err)
		}
		if !task.Visible(viewer, t) {
			return fmt.Errorf("task not found: %s", args[0])
		}

		roster, err := newAccountService(docs).List()
		if err != nil {
			return err
		}

		now := time.Now()
		display := stats.DisplayStatus(t, now)
		fmt.Println(ui.StyleTitle.Render(t.Title))
		fmt.Println(ui.StyleSubtle.Render("ID: " + t.ID))
		fmt.Printf("Status:     %s\n", ui.StatusStyle(display).Render(display))
		fmt.Printf("Priority:   %s\n", ui.PriorityStyle(string(t.Priority)).Render(string(t.Priority)))
		fmt.Printf("Visibility: %s\n", t.Visibility)
		fmt.Printf("Assigned:   %s\n", account.AssigneeLabel(roster, t.AssignedTo))
		if t.Deadline != nil {
			fmt.Printf("Deadline:   %s\n", t.Deadline.Local().Format("2006-01-02 15:04"))
		}
		if t.Description != "" {
			fmt.Printf("\n%s\n", t.Description)
		}

		if len(t.ProgressLogs) > 0 {
			fmt.Println("\n" + ui.StyleTitle.Render("Progress"))
			for _, entry := range t.ProgressLogs {
				line := fmt.Sprintf("  %s  %s", entry.CreatedAt.Local().Format("2006-01-02 15:04"), entry.Text)
				if entry.Link != "" {
					if entry.Text != "" {
						line += " "
					}
					line += ui.StylePrimary.Render(entry.Link)
				}
				line += ui.StyleSubtle.Render("  by " + entry.AuthorName)
				fmt.Println(strings.TrimRight(line, " "))
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by stored status (pending, in-progress, completed)")
	listCmd.Flags().StringVarP(&listPriority, "priority", "p", "", "filter by priority (low, medium, high)")
	listCmd.Flags().BoolVar(&listRecent, "recent", false, "show only the most recently created tasks")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}
