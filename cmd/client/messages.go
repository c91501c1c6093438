package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/client"
)

var (
	chatPages int

	profile    api.Profile
	scoreLat   float64
	scoreLng   float64
	scoreMiles float64
	scoreZip   string
	scoreCtry  string
)

var chatCmd = &cobra.Command{
	Use:   "chat <task-key>",
	Short: "Show a task's chat, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		thread := newApp(cmd).Thread(args[0])
		if err := thread.LoadInitial(cmd.Context()); err != nil {
			return err
		}
		for i := 1; i < chatPages && thread.HasMore(); i++ {
			if err := thread.LoadMore(cmd.Context()); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if thread.HasMore() {
			b, _ := thread.Boundary()
			fmt.Fprintf(out, "... load 10 more (--pages %d)\n", chatPages+1)
			printMessage(out, b)
		}
		for _, m := range thread.Messages() {
			printMessage(out, m)
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <task-key> <message>...",
	Short: "Send a chat message",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		thread := newApp(cmd).Thread(args[0])
		return thread.Post(cmd.Context(), strings.Join(args[1:], " "))
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List tasks with unread messages",
	RunE: func(cmd *cobra.Command, _ []string) error {
		notes, err := newApp(cmd).API.Notifications(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(notes) == 0 {
			fmt.Fprintln(out, "No new messages.")
		}
		for _, n := range notes {
			fmt.Fprintf(out, "%s  %d new  %s\n", n.TaskID, n.Count, n.Overview)
		}
		return nil
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, err := newApp(cmd).API.Account(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), user)
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Create or update your profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, err := newApp(cmd).API.UpdateAccount(cmd.Context(), profile)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), user)
	},
}

var topCmd = &cobra.Command{
	Use:   "topscorers",
	Short: "Show the leaderboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		loc := client.Location{Zipcode: scoreZip, Country: scoreCtry}
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
			loc.Lat, loc.Lng = &scoreLat, &scoreLng
		}
		users, err := newApp(cmd).API.TopScorers(cmd.Context(), loc, scoreMiles)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, u := range users {
			me := ""
			if u.IsCurrentUser {
				me = "  (you)"
			}
			fmt.Fprintf(out, "%2d. %-20s %6d%s\n", i+1, u.Nickname, u.Points, me)
		}
		return nil
	},
}

func printMessage(out io.Writer, m api.Message) {
	who := "them"
	if m.ClassName == api.ClassSentByMe {
		who = "me"
	}
	fmt.Fprintf(out, "[%s] %s\n", who, m.Message)
}

func init() {
	chatCmd.Flags().IntVar(&chatPages, "pages", 1, "number of pages to load")

	f := profileCmd.Flags()
	f.StringVar(&profile.Nickname, "nickname", "", "display name")
	f.StringVar(&profile.Address, "address", "", "street address")
	f.StringVar(&profile.Zipcode, "zipcode", "", "zipcode")
	f.StringVar(&profile.Country, "country", "", "country")
	f.StringVar(&profile.Phone, "phone", "", "phone number")
	f.Float64Var(&profile.Lat, "lat", 0, "latitude")
	f.Float64Var(&profile.Lng, "lng", 0, "longitude")

	topCmd.Flags().Float64Var(&scoreLat, "lat", 0, "latitude")
	topCmd.Flags().Float64Var(&scoreLng, "lng", 0, "longitude")
	topCmd.Flags().Float64Var(&scoreMiles, "miles", 0, "radius in miles")
	topCmd.Flags().StringVar(&scoreZip, "zipcode", "", "neighborhood zipcode")
	topCmd.Flags().StringVar(&scoreCtry, "country", "", "neighborhood country")

	rootCmd.AddCommand(chatCmd, sendCmd, notificationsCmd, accountCmd, profileCmd, topCmd)
}
