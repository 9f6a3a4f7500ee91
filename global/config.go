package global

import (
	"context"
	"os"
	"strconv"

	"WBProject/logger"
	"WBProject/service/mgo"
	redis "WBProject/service/storage/redis"
	"WBProject/tools/ids"
)

// 环境变量优先，缺省走本地默认值

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func ConfigAll(ctx context.Context) {
	ConfigIds()
	ConfigRedis()
	ConfigMgo(ctx)
}

func ConfigIds() {
	n, err := strconv.ParseInt(env("WB_NODE_ID", "100"), 10, 64)
	if err != nil {
		n = 100
	}
	ids.SetNodeID(n)
}

func GetJwtSecret() []byte {
	// 生产环境必须从 ENV/KMS 注入
	return []byte(env("WB_JWT_SECRET", "mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o="))
}

func ConfigRedis() {
	cfg := redis.Config{
		Addr:     env("WB_REDIS_ADDR", "127.0.0.1:6379"),
		Password: env("WB_REDIS_PASSWORD", ""),
		DB:       0,
		PoolSize: 16,
	}
	if err := redis.InitRedis(cfg); err != nil {
		// presence 只是观测镜像，redis 不在线也能跑
		logger.Warnf("[config] redis init failed, presence mirror disabled: %v", err)
	}
}

func ConfigMgo(ctx context.Context) {
	cfg := &mgo.Config{
		Uri:         env("WB_MONGO_URI", "mongodb://localhost:27017"),
		Database:    env("WB_MONGO_DB", "whiteboard"),
		Username:    env("WB_MONGO_USER", ""),
		Password:    env("WB_MONGO_PASSWORD", ""),
		MaxPoolSize: 20,
		MaxRetry:    3,
	}
	mgo.StartAsync(ctx, cfg)
}
