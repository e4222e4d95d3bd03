package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/dashboard/internal/config"
)

const connectTimeout = 5 * time.Second

// openRedis builds a client for the redis session store. REDIS_ADDR may list
// several comma separated addresses, in which case a cluster client is used.
// An unreachable server only warns: the store surfaces errors per call and
// the auth machine treats a failed restore as signed out.
func openRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (redis.UniversalClient, func()) {
	var addrs []string
	for _, addr := range strings.Split(cfg.Addr, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			addrs = append(addrs, addr)
		}
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       addrs,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: connectTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("session redis unreachable", zap.Strings("addrs", addrs), zap.Error(err))
	} else {
		logger.Info("session redis connected", zap.Strings("addrs", addrs))
	}

	return client, func() { _ = client.Close() }
}
