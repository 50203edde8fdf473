package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/nswatch/pkg/cli/config"
	httpctrl "github.com/secmon-lab/nswatch/pkg/controller/http"
	"github.com/secmon-lab/nswatch/pkg/service/msg"
	"github.com/secmon-lab/nswatch/pkg/service/worker"
	"github.com/secmon-lab/nswatch/pkg/usecase"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var nameSuffix string
	var sweepInterval time.Duration
	var storeCfg config.Store
	var slackCfg config.Slack
	var resolverCfg config.Resolver
	var templatesCfg config.Templates

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("NSWATCH_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "name-suffix",
			Usage:       "Registry suffix appended to bare labels",
			Value:       usecase.DefaultNameSuffix,
			Sources:     cli.EnvVars("NSWATCH_NAME_SUFFIX"),
			Destination: &nameSuffix,
		},
		&cli.DurationFlag{
			Name:        "sweep-interval",
			Usage:       "Interval between reconciliation sweeps",
			Value:       worker.DefaultInterval,
			Sources:     cli.EnvVars("NSWATCH_SWEEP_INTERVAL"),
			Destination: &sweepInterval,
		},
	}

	flags = append(flags, storeCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, resolverCfg.Flags()...)
	flags = append(flags, templatesCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server and the reconciliation sweeper",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if slackCfg.BotToken() == "" {
				return goerr.New("slack-bot-token is required")
			}
			if slackCfg.SigningSecret() == "" {
				return goerr.New("slack-signing-secret is required")
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

			bot := usecase.NewBot(repo, resolverClient, gateway,
				usecase.WithTemplates(templates),
				usecase.WithNameSuffix(nameSuffix),
			)

			sweeper := worker.NewSweeper(repo, resolverClient, gateway,
				worker.WithInterval(sweepInterval),
				worker.WithTemplates(templates),
			)
			sweeper.Start(ctx)

			httpOpts := []httpctrl.Options{}
			if pinger, ok := repo.(httpctrl.Pinger); ok {
				httpOpts = append(httpOpts, httpctrl.WithPinger(pinger))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(bot, slackCfg.SigningSecret(), httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr, "sweep_interval", sweepInterval, "slack", slackCfg, "resolver", resolverCfg)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				sweeper.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					sweeper.Stop()
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Let an in-flight sweep finish before the repository closes
				sweeper.Stop()

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
