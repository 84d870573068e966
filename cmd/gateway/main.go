package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"multi-rpc-gateway/pkg/config"
	"multi-rpc-gateway/pkg/logutils"
)

type rootFlags struct {
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "gateway",
		Short:         "Multi-endpoint EVM RPC gateway",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "YAML config file (env overrides it)")

	root.AddCommand(newRunCmd(f), newSendCmd(f), newStatusCmd(f), newCallCmd(f))
	return root
}

func (f *rootFlags) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config error: %w", err)
	}
	logger, err := logutils.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
