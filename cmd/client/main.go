// Command neighborhelp is a terminal client for the NeighborHelp API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/pkg/client"
)

var (
	serverURL string
	token     string
	verbose   bool
	assumeYes bool
)

var rootCmd = &cobra.Command{
	Use:           "neighborhelp",
	Short:         "NeighborHelp command line client",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", envOr("NEIGHBORHELP_URL", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("NEIGHBORHELP_TOKEN"), "access token")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every API call")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to every confirmation")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp(cmd *cobra.Command) *client.App {
	logger := zap.NewNop()
	if verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	api := client.New(serverURL, client.WithToken(token), client.WithLogger(logger))
	term := &terminal{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout(), yes: assumeYes}
	return client.NewApp(api, term, term, logger)
}

// terminal prompts on stdin and prints alerts to stdout.
type terminal struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func (t *terminal) Alert(msg string) { fmt.Fprintln(t.out, "!", msg) }

func (t *terminal) Confirm(msg string) bool {
	if t.yes {
		return true
	}
	fmt.Fprintf(t.out, "%s [y/N] ", msg)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (t *terminal) Redirect(path string) { fmt.Fprintf(t.out, "-> back to %s\n", path) }

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
