package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
)

var (
	authEmail    string
	authPassword string
	authNickname string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and print its tokens",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pair, err := newApp(cmd).API.Register(cmd.Context(), api.Credentials{
			Email: authEmail, Password: authPassword, Nickname: authNickname,
		})
		if err != nil {
			return err
		}
		return printTokens(cmd, pair)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print the tokens",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pair, err := newApp(cmd).API.Login(cmd.Context(), api.Credentials{Email: authEmail, Password: authPassword})
		if err != nil {
			return err
		}
		return printTokens(cmd, pair)
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <refresh-token>",
	Short: "Trade a refresh token for a new token pair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, err := newApp(cmd).API.Refresh(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printTokens(cmd, pair)
	},
}

func printTokens(cmd *cobra.Command, pair *api.TokenPair) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "export NEIGHBORHELP_TOKEN=%s\n", pair.AccessToken)
	fmt.Fprintf(out, "# refresh token: %s\n", pair.RefreshToken)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	registerCmd.Flags().StringVar(&authNickname, "nickname", "", "display name")

	rootCmd.AddCommand(registerCmd, loginCmd, refreshCmd)
}
