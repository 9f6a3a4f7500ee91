package model

import (
	"time"
)

// Status
const (
	UserNormal int32 = 0
	UserBanned int32 = 1
	UserClosed int32 = 2
)

// User 表示系统中的用户主档。
// 网关在连接期间只读引用，不做任何修改。
type User struct {
	// —— 基础标识 ——
	UserID   string `bson:"user_id" json:"userId"` // 全局唯一、不可变的用户ID（主键）
	Nickname string `bson:"nickname" json:"nickname"`
	Email    string `bson:"email" json:"email"`
	FaceURL  string `bson:"face_url,omitempty" json:"faceUrl,omitempty"` // 头像URL

	// —— 账号状态 ——
	Status    int32      `bson:"status,omitempty" json:"status"` // 0=正常,1=禁用,2=注销
	IsDeleted bool       `bson:"is_deleted,omitempty" json:"-"`  // 逻辑删除标记
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"-"`

	// —— 凭证（仅存哈希）——
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	CreateTime time.Time `bson:"create_time" json:"createTime"`
	UpdateTime time.Time `bson:"update_time" json:"updateTime"`
}

func (User) CollectionName() string { return "users" }
