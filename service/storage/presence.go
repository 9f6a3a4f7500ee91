package storage

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	redismgr "WBProject/service/storage/redis"
)

// Redis 里只做观测镜像：网关内存里的 RoomTable 才是成员关系的唯一事实。
// 镜像写失败只记日志，绝不影响事件处理。
//
// presence key: wb:presence:<user>   value=gateway_id，TTL控制在线有效期
// room key:     wb:room:<boardId>    SET of userIds

func presenceKey(user string) string { return "wb:presence:" + user }
func roomKey(boardID string) string  { return "wb:room:" + boardID }

var errNotInitialized = pkgerrors.New("redis not initialized")

// PresenceOnline 标记用户在线并续期
func PresenceOnline(ctx context.Context, user, gatewayID string, ttl time.Duration) error {
	rdb := redismgr.GetRedis()
	if rdb == nil {
		return errNotInitialized
	}
	return rdb.Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

// PresenceOffline 主动下线（删除key）
func PresenceOffline(ctx context.Context, user string) error {
	rdb := redismgr.GetRedis()
	if rdb == nil {
		return errNotInitialized
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup 查询用户是否在线
func PresenceLookup(ctx context.Context, user string) (gatewayID string, online bool, err error) {
	rdb := redismgr.GetRedis()
	if rdb == nil {
		return "", false, errNotInitialized
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if pkgerrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// RoomJoin 把用户加入房间观测集合
func RoomJoin(ctx context.Context, boardID, user string) error {
	rdb := redismgr.GetRedis()
	if rdb == nil {
		return errNotInitialized
	}
	return rdb.SAdd(ctx, roomKey(boardID), user).Err()
}

// RoomLeave 把用户移出房间观测集合
func RoomLeave(ctx context.Context, boardID, user string) error {
	rdb := redismgr.GetRedis()
	if rdb == nil {
		return errNotInitialized
	}
	return rdb.SRem(ctx, roomKey(boardID), user).Err()
}

// RoomOccupancy 观测用房间人数（按用户去重）
func RoomOccupancy(ctx context.Context, boardID string) (int64, error) {
	rdb := redismgr.GetRedis()
	if rdb == nil {
		return 0, errNotInitialized
	}
	return rdb.SCard(ctx, roomKey(boardID)).Result()
}
