package config_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/nswatch/pkg/cli/config"
)

func TestStoreConfigureMemory(t *testing.T) {
	cfg := config.NewStoreForTest("memory", "")
	repo, err := cfg.Configure(context.Background())
	gt.NoError(t, err).Required()
	gt.Value(t, repo).NotNil()
	gt.NoError(t, repo.Close())
}

func TestStoreConfigureRejectsUnknownBackend(t *testing.T) {
	cfg := config.NewStoreForTest("etcd", "")
	_, err := cfg.Configure(context.Background())
	gt.Error(t, err)
}

func TestStoreConfigureRequiresRedisAddr(t *testing.T) {
	cfg := config.NewStoreForTest("redis", "")
	_, err := cfg.Configure(context.Background())
	gt.Error(t, err)
}
