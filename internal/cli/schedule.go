package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage scheduled tasks",
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tasks, err := a.sched.Tasks()
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No scheduled tasks. Run 'aigpt serve' to install defaults.")
			return nil
		}

		for _, t := range tasks {
			state := "disabled"
			if t.Enabled {
				state = "enabled"
			}
			next := "-"
			if t.NextRun != nil {
				next = time.Unix(*t.NextRun, 0).Format("2006-01-02 15:04")
			}
			fmt.Printf("%-40s %-20s %-12s %-8s next %s\n", t.TaskID, t.TaskType, t.Schedule, state, next)
		}
		return nil
	},
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add <type> <schedule>",
	Short: "Add a task (schedule is an interval like 30m or a 5-field cron line)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		task, err := a.sched.Add(args[0], args[1], nil)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s\n", task.TaskID)
		return nil
	},
}

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable <task-id>",
	Short: "Enable a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.sched.Enable(args[0])
	},
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable <task-id>",
	Short: "Disable a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.sched.Disable(args[0])
	},
}

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove <task-id>",
	Short: "Remove a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.sched.Remove(args[0])
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleEnableCmd)
	scheduleCmd.AddCommand(scheduleDisableCmd)
	scheduleCmd.AddCommand(scheduleRemoveCmd)
}
