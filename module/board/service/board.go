package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	boardmodel "WBProject/module/board/model"
	"WBProject/tools/errs"
	"WBProject/tools/ids"
)

// Service 画板存取与准入裁决。
// 事件路由只消费 CheckAccess；其余方法服务于 REST CRUD 面。
type Service struct {
	db *mongo.Database
}

func NewService(db *mongo.Database) *Service {
	return &Service{db: db}
}

func (s *Service) boards() *mongo.Collection {
	return s.db.Collection(boardmodel.Board{}.CollectionName())
}

func (s *Service) snapshots() *mongo.Collection {
	return s.db.Collection(boardmodel.Snapshot{}.CollectionName())
}

func newBoardID() string { return uuid.NewString() }

// CheckAccess 裁决：nil=Allowed；ErrBoardNotFound / ErrAccessDenied。
// 网关拒绝准入时两者同样拒绝，但给客户端可区分的消息。
func (s *Service) CheckAccess(ctx context.Context, boardID, userID string) error {
	var b boardmodel.Board
	err := s.boards().FindOne(ctx, bson.M{"board_id": boardID}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return errs.ErrBoardNotFound.WrapMsg("no such board", "boardID", boardID)
	}
	if err != nil {
		return errs.WrapMsg(err, "check access", "boardID", boardID)
	}
	return decideAccess(&b, userID)
}

// decideAccess 纯裁决：owner 或协作者放行
func decideAccess(b *boardmodel.Board, userID string) error {
	if b.OwnerID == userID {
		return nil
	}
	for _, c := range b.Collaborators {
		if c == userID {
			return nil
		}
	}
	return errs.ErrAccessDenied.WrapMsg("not owner or collaborator", "boardID", b.BoardID, "userID", userID)
}

func (s *Service) Create(ctx context.Context, ownerID, title string) (*boardmodel.Board, error) {
	if title == "" {
		title = "Untitled"
	}
	now := time.Now()
	b := &boardmodel.Board{
		BoardID:       newBoardID(),
		Title:         title,
		OwnerID:       ownerID,
		Collaborators: []string{},
		CreateTime:    now,
		UpdateTime:    now,
	}
	if _, err := s.boards().InsertOne(ctx, b); err != nil {
		return nil, errs.WrapMsg(err, "create board")
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, boardID string) (*boardmodel.Board, error) {
	var b boardmodel.Board
	err := s.boards().FindOne(ctx, bson.M{"board_id": boardID}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrBoardNotFound.Wrap()
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "get board", "boardID", boardID)
	}
	return &b, nil
}

// ListForUser 用户可见的画板（owner 或协作者）
func (s *Service) ListForUser(ctx context.Context, userID string) ([]boardmodel.Board, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner_id": userID},
		bson.M{"collaborators": userID},
	}}
	cur, err := s.boards().Find(ctx, filter, options.Find().SetSort(bson.M{"update_time": -1}))
	if err != nil {
		return nil, errs.WrapMsg(err, "list boards", "userID", userID)
	}
	defer cur.Close(ctx)
	var out []boardmodel.Board
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode boards")
	}
	return out, nil
}

// Delete 仅 owner 可删
func (s *Service) Delete(ctx context.Context, boardID, userID string) error {
	res, err := s.boards().DeleteOne(ctx, bson.M{"board_id": boardID, "owner_id": userID})
	if err != nil {
		return errs.WrapMsg(err, "delete board", "boardID", boardID)
	}
	if res.DeletedCount == 0 {
		return errs.ErrAccessDenied.WrapMsg("not owner or board missing")
	}
	_, _ = s.snapshots().DeleteMany(ctx, bson.M{"board_id": boardID})
	return nil
}

// AddCollaborator 仅 owner 可邀请；幂等
func (s *Service) AddCollaborator(ctx context.Context, boardID, ownerID, collaboratorID string) error {
	res, err := s.boards().UpdateOne(ctx,
		bson.M{"board_id": boardID, "owner_id": ownerID},
		bson.M{
			"$addToSet": bson.M{"collaborators": collaboratorID},
			"$set":      bson.M{"update_time": time.Now()},
		})
	if err != nil {
		return errs.WrapMsg(err, "add collaborator", "boardID", boardID)
	}
	if res.MatchedCount == 0 {
		return errs.ErrAccessDenied.WrapMsg("not owner or board missing")
	}
	return nil
}

// SaveSnapshot 显式保存路径；先校验准入
func (s *Service) SaveSnapshot(ctx context.Context, boardID, userID string, elements []map[string]any) (*boardmodel.Snapshot, error) {
	if err := s.CheckAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	snap := &boardmodel.Snapshot{
		SnapshotID: ids.GenerateString(),
		BoardID:    boardID,
		Elements:   elements,
		SavedBy:    userID,
		SavedAt:    time.Now(),
	}
	if _, err := s.snapshots().InsertOne(ctx, snap); err != nil {
		return nil, errs.WrapMsg(err, "save snapshot", "boardID", boardID)
	}
	_, _ = s.boards().UpdateOne(ctx,
		bson.M{"board_id": boardID},
		bson.M{"$set": bson.M{"update_time": time.Now()}})
	return snap, nil
}

func (s *Service) LatestSnapshot(ctx context.Context, boardID, userID string) (*boardmodel.Snapshot, error) {
	if err := s.CheckAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	var snap boardmodel.Snapshot
	err := s.snapshots().FindOne(ctx,
		bson.M{"board_id": boardID},
		options.FindOne().SetSort(bson.M{"saved_at": -1}),
	).Decode(&snap)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("no snapshot yet", "boardID", boardID)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "latest snapshot", "boardID", boardID)
	}
	return &snap, nil
}
