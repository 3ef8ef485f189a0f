package main

import (
	"context"
	"fmt"
	"time"

	"inference-gateway/config"
	"inference-gateway/gateway/domain"
	"inference-gateway/gateway/infra"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 2 * time.Second

// newStatsStore devolve nil quando as estatísticas estão desligadas: nada é
// gravado. Ligadas, exige Redis respondendo ao PING. O closer é sempre seguro.
func newStatsStore(ctx context.Context, cfg config.StatsConfig) (domain.StatsStore, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	closeFn := func() { _ = rdb.Close() }

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		closeFn()
		return nil, func() {}, fmt.Errorf("outcome stats redis ping %s: %w", cfg.RedisAddr, err)
	}

	store := infra.NewRedisStatsStore(
		rdb,
		infra.WithStatsPrefix(cfg.Prefix),
		infra.WithStatsTTL(cfg.TTL),
		infra.WithStatsBucket(cfg.Bucket),
		infra.WithStatsTrackKeys(cfg.TrackKeys),
	)
	return store, closeFn, nil
}
