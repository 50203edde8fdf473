package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/service/resolver"
	"github.com/urfave/cli/v3"
)

// Resolver holds CLI flags for the name resolver endpoint
type Resolver struct {
	endpoint string
}

func (x *Resolver) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "resolver-endpoint",
			Usage:       "JSON-RPC endpoint of the name registry resolver",
			Category:    "Resolver",
			Required:    true,
			Destination: &x.endpoint,
			Sources:     cli.EnvVars("NSWATCH_RESOLVER_ENDPOINT"),
		},
	}
}

func (x Resolver) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("endpoint", x.endpoint),
	)
}

// Configure builds a resolver client from the flags
func (x *Resolver) Configure() (*resolver.Client, error) {
	client, err := resolver.New(x.endpoint)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize resolver client")
	}
	return client, nil
}
