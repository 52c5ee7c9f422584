package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryansoph/taskflow/internal/account"
	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/stats"
	"github.com/bryansoph/taskflow/internal/ui"
)

var (
	calendarMonth string
	calendarDay   int
)

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Show a month calendar of deadlines",
	Long: `Show a calendar of the current month with task deadlines on their
days. Days with many tasks show the first few and a "+N more" marker;
use --day to list everything due on one day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("calendar")

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

		now := time.Now()
		year, month := now.Year(), now.Month()
		if calendarMonth != "" {
			parsed, err := time.ParseInLocation("2006-01", calendarMonth, time.Local)
			if err != nil {
				return fmt.Errorf("unrecognized month %q (want YYYY-MM)", calendarMonth)
			}
			year, month = parsed.Year(), parsed.Month()
		}

		buckets := stats.MonthBuckets(tasks, year, month)

		if calendarDay > 0 {
			roster, err := newAccountService(docs).List()
			if err != nil {
				return err
			}
			day := buckets[calendarDay]
			fmt.Println(ui.StyleTitle.Render(fmt.Sprintf("%s %d, %d", month, calendarDay, year)))
			if len(day) == 0 {
				fmt.Println("Nothing due.")
				return nil
			}
			for _, t := range day {
				display := stats.DisplayStatus(t, now)
				fmt.Printf("  %s %s %s\n",
					ui.StatusStyle(display).Render("["+display+"]"),
					t.Title,
					ui.StyleSubtle.Render("("+account.AssigneeLabel(roster, t.AssignedTo)+")"))
			}
			return nil
		}

		cells := make(map[int]ui.DayCell, len(buckets))
		for day, bucket := range buckets {
			preview := stats.PreviewDay(bucket)
			cell := ui.DayCell{More: preview.Overflow}
			for _, t := range preview.Shown {
				cell.Lines = append(cell.Lines, ui.Truncate(t.Title, 12))
			}
			cells[day] = cell
		}

		fmt.Println(ui.StyleTitle.Render(fmt.Sprintf("%s %d", month, year)))
		fmt.Println(ui.MonthGrid(year, month, cells, now))
		return nil
	},
}

func init() {
	calendarCmd.Flags().StringVarP(&calendarMonth, "month", "m", "", "month to show (YYYY-MM, default current)")
	calendarCmd.Flags().IntVarP(&calendarDay, "day", "d", 0, "list every task due on this day of the month")
	rootCmd.AddCommand(calendarCmd)
}
