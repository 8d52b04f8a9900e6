package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kochabx/sso/app"
	"github.com/kochabx/sso/config"
	"github.com/kochabx/sso/log"
	"github.com/kochabx/sso/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	file      string
	envPrefix string
	watch     bool
}

func (o *options) loader() *config.Config[server.Config] {
	return config.New[server.Config](config.WithFile(o.file), config.WithEnvPrefix(o.envPrefix))
}

func newRootCommand() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "sso",
		Short:         "Single sign-on session and service ticket server",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o)
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.file, "config", "c", "config.yaml", "config file path")
	flags.StringVar(&o.envPrefix, "env-prefix", "SSO", "environment variable prefix")
	cmd.Flags().BoolVar(&o.watch, "watch", true, "reload trusted applications when the config file changes")

	cmd.AddCommand(newCheckCommand(o))
	return cmd
}

// check 只加载并校验配置
func newCheckCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:           "check",
		Short:         "Validate the config file and exit",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loader().Load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: %d applications, registry source %s\n",
				len(cfg.Registry.Applications), cfg.Registry.Source)
			return nil
		},
	}
}

func run(ctx context.Context, o *options) error {
	loader := o.loader()
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	log.SetGlobalLogger(srv.Logger())

	if o.watch {
		loader.OnChange(srv.Reload)
		loader.Watch()
	}
	return srv.Application(app.WithContext(ctx)).Start()
}
