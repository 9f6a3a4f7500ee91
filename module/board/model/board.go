package model

import (
	"time"
)

// Board 画板主档。Collaborators 是被接受邀请的用户ID列表（owner 不在其中）。
type Board struct {
	BoardID       string    `bson:"board_id" json:"boardId"` // uuid
	Title         string    `bson:"title" json:"title"`
	OwnerID       string    `bson:"owner_id" json:"ownerId"`
	Collaborators []string  `bson:"collaborators" json:"collaborators"`
	CreateTime    time.Time `bson:"create_time" json:"createTime"`
	UpdateTime    time.Time `bson:"update_time" json:"updateTime"`
}

func (Board) CollectionName() string { return "whiteboards" }

// Snapshot 显式保存动作落下的全量画面；实时事件流永远不落库。
type Snapshot struct {
	SnapshotID string           `bson:"snapshot_id" json:"snapshotId"`
	BoardID    string           `bson:"board_id" json:"boardId"`
	Elements   []map[string]any `bson:"elements" json:"elements"` // 客户端渲染元素，网关不做语义解释
	SavedBy    string           `bson:"saved_by" json:"savedBy"`
	SavedAt    time.Time        `bson:"saved_at" json:"savedAt"`
}

func (Snapshot) CollectionName() string { return "whiteboard_snapshots" }
