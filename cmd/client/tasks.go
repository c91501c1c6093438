package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/client"
)

var (
	feedCategory string
	feedMiles    float64
	feedPage     int
	feedLat      float64
	feedLng      float64
	feedZipcode  string
	feedCountry  string

	taskForm  api.TaskForm
	adminForm api.AdminTaskForm

	mineKeyword  string
	mineComplete bool
	mineCursor   string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show open tasks near a location",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := newApp(cmd)
		loc := client.Location{Zipcode: feedZipcode, Country: feedCountry}
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
			loc.Lat, loc.Lng = &feedLat, &feedLng
		}
		app.SetLocation(loc)
		if err := app.Browse(cmd.Context(), feedCategory, feedMiles); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if app.Feed.Empty() {
			fmt.Fprintln(out, "No tasks found nearby.")
			return nil
		}
		for app.Feed.Current() < feedPage && app.Feed.Next() {
		}
		set := app.Feed.Set()
		fmt.Fprintf(out, "%d tasks, page %d of %d\n", set.TaskCount, app.Feed.Current(), set.PageCount)
		fmt.Fprintln(out, app.Feed.Page())
		return nil
	},
}

var taskCmd = &cobra.Command{
	Use:   "task <key>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := newApp(cmd).API.Task(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), task)
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Ask the neighborhood for help",
	RunE: func(cmd *cobra.Command, _ []string) error {
		task, err := newApp(cmd).API.CreateTask(cmd.Context(), taskForm)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), task)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <key>",
	Short: "Edit an open task; unset flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp(cmd)
		form, err := app.Guard.Edit(cmd.Context(), args[0])
		if err != nil {
			return quiet(err)
		}
		flags := cmd.Flags()
		if flags.Changed("category") {
			form.Category = taskForm.Category
		}
		if flags.Changed("overview") {
			form.Overview = taskForm.Overview
		}
		if flags.Changed("detail") {
			form.Detail = taskForm.Detail
		}
		if flags.Changed("reward") {
			form.Reward = taskForm.Reward
		}
		task, err := app.Guard.SubmitEdit(cmd.Context(), form)
		if err != nil {
			return quiet(err)
		}
		return printJSON(cmd.OutOrStdout(), task)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete an open task you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newApp(cmd).Guard.Delete(cmd.Context(), args[0]); err != nil {
			return quiet(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Task deleted.")
		return nil
	},
}

// guardCmd builds a command that runs one guarded transition.
func guardCmd(use, short string, act func(g *client.Guard, ctx context.Context, key string) (*api.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <key>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := act(newApp(cmd).Guard, cmd.Context(), args[0])
			if err != nil {
				return quiet(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task is now %s.\n", task.Status)
			return nil
		},
	}
}

var mineCmd = &cobra.Command{
	Use:   "mytasks",
	Short: "List tasks you own or help with",
	RunE: func(cmd *cobra.Command, _ []string) error {
		page, err := newApp(cmd).API.MyTasks(cmd.Context(), mineKeyword, mineComplete, mineCursor)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(page.Tasks) == 0 {
			fmt.Fprintln(out, "No tasks.")
			return nil
		}
		for _, t := range page.Tasks {
			fmt.Fprintf(out, "%s  %-28s  %-12s  %s\n", t.KeyString, t.Status, t.HelperNickname, t.Overview)
		}
		if page.CursorString != "" {
			fmt.Fprintf(out, "more: --cursor %s\n", page.CursorString)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show admin task statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		stats, err := newApp(cmd).API.AdminStats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

var adminTaskCmd = &cobra.Command{
	Use:   "admintask",
	Short: "Record an errand for a neighbor, or list recorded ones",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := newApp(cmd).API
		if !cmd.Flags().Changed("detail") {
			tasks, err := c.AdminTasks(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tasks)
		}
		task, err := c.RecordAdminTask(cmd.Context(), adminForm)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), task)
	},
}

// quiet swallows refusals the guard already reported to the user.
func quiet(err error) error {
	if client.IsRefused(err) || errors.Is(err, client.ErrAlreadyClaimed) || errors.Is(err, client.ErrStale) {
		return nil
	}
	return err
}

func init() {
	feedCmd.Flags().StringVar(&feedCategory, "category", client.CategoryAll, "category filter")
	feedCmd.Flags().Float64Var(&feedMiles, "miles", 0, "search radius in miles")
	feedCmd.Flags().IntVar(&feedPage, "page", 1, "page to show")
	feedCmd.Flags().Float64Var(&feedLat, "lat", 0, "latitude")
	feedCmd.Flags().Float64Var(&feedLng, "lng", 0, "longitude")
	feedCmd.Flags().StringVar(&feedZipcode, "zipcode", "", "neighborhood zipcode")
	feedCmd.Flags().StringVar(&feedCountry, "country", "", "neighborhood country")

	for _, c := range []*cobra.Command{createCmd, editCmd} {
		c.Flags().StringVar(&taskForm.Category, "category", "", "task category")
		c.Flags().StringVar(&taskForm.Overview, "overview", "", "short summary")
		c.Flags().StringVar(&taskForm.Detail, "detail", "", "full description")
		c.Flags().Int64Var(&taskForm.Reward, "reward", 0, "points for the helper")
	}

	adminTaskCmd.Flags().StringVar(&adminForm.Owner, "owner", "", "neighbor the errand is for")
	adminTaskCmd.Flags().StringVar(&adminForm.Detail, "detail", "", "what needs doing")
	adminTaskCmd.Flags().StringVar(&adminForm.Date, "date", "", "day, YYYY-MM-DD")
	adminTaskCmd.Flags().StringVar(&adminForm.Time, "time", "", "time, HH:MM")

	mineCmd.Flags().StringVar(&mineKeyword, "keyword", "Owner", "Owner or Helper")
	mineCmd.Flags().BoolVar(&mineComplete, "complete", false, "list finished tasks")
	mineCmd.Flags().StringVar(&mineCursor, "cursor", "", "continuation cursor")

	rootCmd.AddCommand(
		feedCmd, taskCmd, createCmd, editCmd, deleteCmd, mineCmd, statsCmd, adminTaskCmd,
		guardCmd("claim", "Offer help with an open task", (*client.Guard).Claim),
		guardCmd("complete", "Mark a task you help with as complete", (*client.Guard).Complete),
		guardCmd("abandon", "Give a task back to the neighborhood", (*client.Guard).Abandon),
		guardCmd("verify", "Confirm the helper finished your task", (*client.Guard).Verify),
		guardCmd("disapprove", "Send a finished task back to the helper", (*client.Guard).Disapprove),
	)
}
