package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/interfaces"
	"github.com/secmon-lab/nswatch/pkg/repository/memory"
	"github.com/secmon-lab/nswatch/pkg/repository/redisrepo"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Store holds CLI flags for storage backend configuration
type Store struct {
	backend   string
	redisAddr string
}

// Flags returns CLI flags for store configuration
func (x *Store) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "store-backend",
			Usage:       "Storage backend type (redis or memory)",
			Category:    "Store",
			Value:       "redis",
			Sources:     cli.EnvVars("NSWATCH_STORE_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis server address (required when using redis backend)",
			Category:    "Store",
			Value:       "127.0.0.1:6379",
			Sources:     cli.EnvVars("NSWATCH_REDIS_ADDR"),
			Destination: &x.redisAddr,
		},
	}
}

// Backend returns the configured backend type
func (x *Store) Backend() string {
	return x.backend
}

// Configure initializes and returns a repository based on the configured
// backend. The caller is responsible for calling Close() on the returned
// repository.
func (x *Store) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch x.backend {
	case "redis":
		if x.redisAddr == "" {
			return nil, goerr.New("redis-addr is required when using redis backend")
		}
		repo, err := redisrepo.New(ctx, x.redisAddr)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize redis repository")
		}
		logging.Default().Info("Using Redis repository", "addr", x.redisAddr)
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid store backend, must be 'redis' or 'memory'",
			goerr.V("backend", x.backend))
	}
}
