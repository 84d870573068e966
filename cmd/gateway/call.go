package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"multi-rpc-gateway/pkg/gateway"
)

func newCallCmd(f *rootFlags) *cobra.Command {
	var repeat int
	cmd := &cobra.Command{
		Use:   "call <method> [params-json]",
		Short: "Run a read on the primary endpoint, cached until the next block",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := f.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			var params json.RawMessage
			if len(args) == 2 {
				params = json.RawMessage(args[1])
				if !json.Valid(params) {
					return fmt.Errorf("params are not valid JSON: %s", args[1])
				}
			}

			feed := gateway.NewHeadFeed()
			gw, err := buildGateway(cmd.Context(), cfg, logger, gateway.WithBlockEvents(feed))
			if err != nil {
				return err
			}
			defer gw.Close()

			return runCall(cmd.Context(), gw, feed, cmd.OutOrStdout(), args[0], params, repeat)
		},
	}
	cmd.Flags().IntVar(&repeat, "repeat", 1, "issue the call N times; repeats within one block are served from cache")
	return cmd
}

// runCall pins the cache to the current head, then performs method repeat
// times through the block cache and prints every result.
func runCall(ctx context.Context, gw *gateway.Gateway, feed *gateway.HeadFeed, w io.Writer, method string, params json.RawMessage, repeat int) error {
	if method == gateway.MethodSendTransaction {
		return fmt.Errorf("use `gateway send` to broadcast transactions")
	}
	head, err := gw.BlockNumber(ctx)
	if err != nil {
		return err
	}
	feed.Publish(head)

	var p any
	if params != nil {
		p = params
	}
	for range max(repeat, 1) {
		res, err := gw.PerformCached(ctx, method, p)
		if err != nil {
			return err
		}
		out, err := json.Marshal(res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\n", feed.Head(), out)
	}
	return nil
}
