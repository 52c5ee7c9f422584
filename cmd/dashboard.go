package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bryansoph/taskflow/internal/account"
	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/stats"
	"github.com/bryansoph/taskflow/internal/ui"
	"github.com/bryansoph/taskflow/models"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Show task counters and recent activity",
	Long: `Show the dashboard for the tasks you can see: totals, pending and
overdue counters, what is due in the next two days, and the most
recently created tasks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("dashboard")

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
		roster, err := newAccountService(docs).List()
		if err != nil {
			return err
		}

		now := time.Now()
		renderDashboard(viewer, tasks, roster, now)
		return nil
	},
}

func renderDashboard(viewer models.Account, tasks []models.Task, roster []models.Account, now time.Time) {
	counters := stats.Count(tasks, now)

	fmt.Println(ui.StyleTitle.Render("Hello, " + viewer.DisplayName))
	fmt.Println()

	boxes := []string{
		statBox("Total", fmt.Sprintf("%d", counters.Total), ui.StyleText),
		statBox("Pending", fmt.Sprintf("%d", counters.Pending), ui.StyleWarning),
		statBox("Overdue", fmt.Sprintf("%d", counters.Overdue), ui.StyleError),
		statBox("Due Soon", fmt.Sprintf("%d", counters.DueSoon), ui.StylePrimary),
	}
	fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))

	dueSoon := filterTasks(append([]models.Task(nil), tasks...), func(t models.Task) bool {
		return stats.IsDueSoon(t, now)
	})
	if len(dueSoon) > 0 {
		sortTasksForList(dueSoon)
		fmt.Println(ui.StyleTitle.Render("Due soon"))
		for _, t := range dueSoon {
			fmt.Printf("  %s  %s %s\n",
				t.Deadline.Local().Format("Mon 15:04"),
				t.Title,
				ui.StyleSubtle.Render("("+account.AssigneeLabel(roster, t.AssignedTo)+")"))
		}
		fmt.Println()
	}

	recent := stats.Recent(tasks, stats.RecentLimit)
	if len(recent) > 0 {
		fmt.Println(ui.StyleTitle.Render("Recently created"))
		for _, t := range recent {
			display := stats.DisplayStatus(t, now)
			fmt.Printf("  %s  %s %s\n",
				t.CreatedAt.Local().Format("2006-01-02"),
				t.Title,
				ui.StatusStyle(display).Render("["+display+"]"))
		}
	}
}

func statBox(label, value string, style lipgloss.Style) string {
	content := style.Bold(true).Render(value) + "\n" + ui.StyleSubtle.Render(label)
	return ui.StyleStatBox.Render(content)
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
