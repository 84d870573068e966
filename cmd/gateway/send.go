package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"multi-rpc-gateway/pkg/gateway"
)

func newSendCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <signed-tx-hex>",
		Short: "Broadcast a signed transaction to every endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := f.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			gw, err := buildGateway(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer gw.Close()

			hash, err := gw.SendTransaction(cmd.Context(), args[0])
			if err != nil {
				var be *gateway.BroadcastError
				if errors.As(err, &be) {
					for i, e := range be.Errors {
						logger.Warn("endpoint rejected transaction", zap.Int("index", i), zap.Error(e))
					}
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
