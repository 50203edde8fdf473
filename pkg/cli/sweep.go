package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/nswatch/pkg/cli/config"
	"github.com/secmon-lab/nswatch/pkg/service/msg"
	"github.com/secmon-lab/nswatch/pkg/service/worker"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// cmdSweep runs a single reconciliation pass and exits. Useful for
// cron-style deployments and for verifying a configuration.
func cmdSweep() *cli.Command {
	var storeCfg config.Store
	var slackCfg config.Slack
	var resolverCfg config.Resolver
	var templatesCfg config.Templates

	var flags []cli.Flag
	flags = append(flags, storeCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, resolverCfg.Flags()...)
	flags = append(flags, templatesCfg.Flags()...)

	return &cli.Command{
		Name:  "sweep",
		Usage: "Run one reconciliation sweep and exit",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if slackCfg.BotToken() == "" {
				return goerr.New("slack-bot-token is required")
			}

			repo, err := storeCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			resolverClient, err := resolverCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure resolver")
			}

			templates, err := templatesCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load notice templates")
			}

			if err := msg.AuthTest(ctx, slackCfg.BotToken()); err != nil {
				return goerr.Wrap(err, "slack bot token rejected")
			}
			gateway, err := msg.New(slackCfg.BotToken())
			if err != nil {
				return goerr.Wrap(err, "failed to initialize slack gateway")
			}

			sweeper := worker.NewSweeper(repo, resolverClient, gateway,
				worker.WithTemplates(templates),
			)
			if err := sweeper.Sweep(ctx); err != nil {
				return goerr.Wrap(err, "sweep failed")
			}
			return nil
		},
	}
}
