package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/ui"
	"github.com/bryansoph/taskflow/models"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live task updates",
	Long: `Stream snapshots of the tasks you can see. The first snapshot is
printed immediately; afterwards a fresh one is printed whenever the
shared store changes, including writes made by other processes against
the same data directory. The roster is watched too, so assignee names
stay current across account edits. Interrupt with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand("watch")

		docs, err := GetStore()
		if err != nil {
			return err
		}
		defer docs.Close()

		viewer, err := currentAccount(docs)
		if err != nil {
			return err
		}

		snapshots, stopTasks, err := newTaskService(docs).Watch(viewer)
		if err != nil {
			return err
		}
		defer stopTasks()

		rosters, stopRoster, err := newAccountService(docs).Watch()
		if err != nil {
			return err
		}
		defer stopRoster()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)

		var tasks []models.Task
		var roster []models.Account
		haveTasks := false

		render := func() {
			fmt.Println(ui.StyleSubtle.Render("update " + time.Now().Format("15:04:05")))
			if len(tasks) == 0 {
				fmt.Println("No tasks.")
				return
			}
			sorted := append([]models.Task(nil), tasks...)
			sortTasksForList(sorted)
			renderTaskTable(sorted, roster, time.Now())
		}

		fmt.Println(ui.StyleSubtle.Render("Watching for changes. Ctrl-C to stop."))
		for {
			select {
			case next, ok := <-snapshots:
				if !ok {
					return nil
				}
				tasks = next
				haveTasks = true
				render()
			case next, ok := <-rosters:
				if !ok {
					return nil
				}
				roster = next
				// The roster primes before the first task snapshot; only
				// re-render once there is a table to refresh.
				if haveTasks {
					render()
				}
			case <-sigs:
				fmt.Println()
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
