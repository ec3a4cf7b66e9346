package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/WesleyKlop/journali-api/internal/client"
)

type globals struct {
	api     string
	token   string
	timeout time.Duration
	debug   bool
}

func (g *globals) client() *client.Client {
	return client.New(g.api,
		client.WithToken(g.token),
		client.WithTimeout(g.timeout),
		client.WithDebug(g.debug),
	)
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "journalictl",
		Short:         "CLI client for the journali REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.api, "api", "a", envOr("JOURNALI_API", "http://localhost:8000"), "Journali service base URL")
	root.PersistentFlags().StringVarP(&g.token, "token", "t", os.Getenv("JOURNALI_TOKEN"), "Bearer token (defaults to $JOURNALI_TOKEN)")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 30*time.Second, "Per-request timeout")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Log HTTP requests and responses")

	root.AddCommand(newUserCmds(g)...)
	root.AddCommand(newItemsCmd(g))
	root.AddCommand(newServerCmd(g))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

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
