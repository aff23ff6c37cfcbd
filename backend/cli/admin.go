package cli

import (
	"context"
	"encoding/json"
	"io"
	"pollhub/client"
	"time"

	"github.com/spf13/cobra"
)

type adminOptions struct {
	server  string
	timeout time.Duration
}

func newAdminCommand() *cobra.Command {
	opts := &adminOptions{}
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator operations against a running server",
	}
	cmd.PersistentFlags().StringVarP(&opts.server, "server", "s", "http://127.0.0.1:5000", "Registry server base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "clients <domain>",
			Short: "List clients registered under a domain",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := opts.context(cmd)
				defer cancel()
				list, err := client.New(opts.server).Clients(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"clients": list})
			},
		},
		&cobra.Command{
			Use:   "send <domain> <client_id> <command>",
			Short: "Queue a command for a client",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := opts.context(cmd)
				defer cancel()
				if err := client.New(opts.server).SendCommand(ctx, args[0], args[1], args[2]); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]string{"status": "success"})
			},
		},
		&cobra.Command{
			Use:   "results <domain> <client_id>",
			Short: "Show results reported by a client",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := opts.context(cmd)
				defer cancel()
				results, err := client.New(opts.server).Results(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"results": results})
			},
		},
	)
	return cmd
}

func (o *adminOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, o.timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
