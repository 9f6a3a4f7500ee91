package mgo

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"WBProject/logger"
	"WBProject/tools/errs"
)

// Config represents the MongoDB configuration.
type Config struct {
	Uri         string
	Database    string
	Username    string
	Password    string
	AuthSource  string
	MaxPoolSize int
	MaxRetry    int
}

func (c *Config) validateAndSetDefaults() error {
	if c.Uri == "" {
		return errs.New("mongo uri is required")
	}
	if c.Database == "" {
		return errs.New("mongo database is required")
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = 20
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = 3
	}
	if c.AuthSource == "" {
		c.AuthSource = "admin"
	}
	return nil
}

type MongoManager struct {
	mu        sync.RWMutex
	db        *mongo.Database
	readyCh   chan struct{} // 首次就绪通知；只会被 close 一次
	readyOnce sync.Once

	lastErr atomic.Value // error
}

var globalMgr = &MongoManager{readyCh: make(chan struct{})}

func Manager() *MongoManager { return globalMgr }

// DB 获取当前数据库句柄；未就绪返回 nil
func (m *MongoManager) DB() *mongo.Database {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// WaitReady 阻塞直到首次连接成功或 ctx 取消
func WaitReady(ctx context.Context, m *MongoManager) error {
	select {
	case <-m.readyCh:
		return nil
	case <-ctx.Done():
		if err, ok := m.lastErr.Load().(error); ok && err != nil {
			return errs.WrapMsg(err, "mongo not ready")
		}
		return ctx.Err()
	}
}

// StartAsync 一直运行到 ctx.Done()；首次连上时 close readyCh，掉线自动重连
func StartAsync(ctx context.Context, cfg *Config) {
	go func() {
		const (
			baseBackoff = 200 * time.Millisecond
			maxBackoff  = 5 * time.Second
			healthEvery = 10 * time.Second // 健康检查周期
			failThresh  = 3                // 连续失败阈值
		)

		if err := cfg.validateAndSetDefaults(); err != nil {
			globalMgr.lastErr.Store(err)
			logger.Errorf("[mgo] bad config: %v", err)
			return
		}

		for {
			// ===== 连接阶段（带退避重试）=====
			attempt := 0
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				db, err := connect(ctx, cfg)
				if err == nil {
					globalMgr.mu.Lock()
					globalMgr.db = db
					globalMgr.mu.Unlock()

					// 只在首次成功时通知就绪
					globalMgr.readyOnce.Do(func() { close(globalMgr.readyCh) })
					break
				}

				globalMgr.lastErr.Store(err)

				backoff := baseBackoff << attempt
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				jitter := time.Duration(rand.Int63n(int64(backoff/5) + 1))
				sleep := backoff - jitter/2

				timer := time.NewTimer(sleep)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
				if attempt < 6 {
					attempt++
				}
			}

			// ===== 健康检查阶段（掉线→回到连接阶段）=====
			fail := 0
			healthTicker := time.NewTicker(healthEvery)
			alive := true
			for alive {
				select {
				case <-ctx.Done():
					healthTicker.Stop()
					globalMgr.disconnect()
					return
				case <-healthTicker.C:
					db := globalMgr.DB()
					if db == nil {
						alive = false
						break
					}
					if err := db.Client().Ping(ctx, readpref.Primary()); err != nil {
						fail++
						globalMgr.lastErr.Store(err)
						if fail >= failThresh {
							logger.Warnf("[mgo] lost connection, reconnecting: %v", err)
							globalMgr.disconnect()
							alive = false
						}
					} else {
						fail = 0
					}
				}
			}
			healthTicker.Stop()
		}
	}()
}

func (m *MongoManager) disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		_ = m.db.Client().Disconnect(context.Background())
		m.db = nil
	}
}

func connect(ctx context.Context, cfg *Config) (*mongo.Database, error) {
	opts := options.Client().ApplyURI(cfg.Uri)
	opts.SetMaxPoolSize(uint64(cfg.MaxPoolSize))
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   cfg.Username,
			Password:   cfg.Password,
			AuthSource: cfg.AuthSource,
		})
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cli, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, errs.WrapMsg(err, "failed to connect to MongoDB", "URI", cfg.Uri)
	}
	if err := cli.Ping(cctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, errs.WrapMsg(err, "mongo ping failed")
	}
	return cli.Database(cfg.Database), nil
}
