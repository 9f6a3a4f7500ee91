package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	usermodel "WBProject/module/user/model"
	"WBProject/tools/errs"
	"WBProject/tools/ids"
	jwtlib "WBProject/tools/security"
)

// Store 用户主档查询；mongo 实现 + 单测 fake
type Store interface {
	FindByID(ctx context.Context, userID string) (*usermodel.User, error)
	FindByEmail(ctx context.Context, email string) (*usermodel.User, error)
	Insert(ctx context.Context, u *usermodel.User) error
}

type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) coll() *mongo.Collection {
	return s.db.Collection(usermodel.User{}.CollectionName())
}

func (s *MongoStore) FindByID(ctx context.Context, userID string) (*usermodel.User, error) {
	var u usermodel.User
	err := s.coll().FindOne(ctx, bson.M{"user_id": userID, "is_deleted": bson.M{"$ne": true}}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found", "userID", userID)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user", "userID", userID)
	}
	return &u, nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	var u usermodel.User
	err := s.coll().FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found", "email", email)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user by email")
	}
	return &u, nil
}

func (s *MongoStore) Insert(ctx context.Context, u *usermodel.User) error {
	if _, err := s.coll().InsertOne(ctx, u); err != nil {
		return errs.WrapMsg(err, "insert user", "userID", u.UserID)
	}
	return nil
}

// AuthService 认证能力：注册/登录签发令牌，令牌解析成用户。
// 网关的 IdentityResolver 就是它（同一份解析逻辑，前置守卫和连接兜底两处调用）。
type AuthService struct {
	opts  jwtlib.Options
	store Store
}

func NewAuthService(opts jwtlib.Options, store Store) *AuthService {
	return &AuthService{opts: opts, store: store}
}

func hashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return "sha256:" + hex.EncodeToString(sum[:])
}

func (a *AuthService) Register(ctx context.Context, nickname, email, password string) (*usermodel.User, error) {
	if email == "" || password == "" {
		return nil, errs.ErrArgs.WrapMsg("email/password required")
	}
	if _, err := a.store.FindByEmail(ctx, email); err == nil {
		return nil, errs.ErrArgs.WrapMsg("email already registered")
	}
	now := time.Now()
	u := &usermodel.User{
		UserID:       ids.GenerateString(),
		Nickname:     nickname,
		Email:        strings.ToLower(email),
		Status:       usermodel.UserNormal,
		PasswordHash: hashPassword(password),
		CreateTime:   now,
		UpdateTime:   now,
	}
	if err := a.store.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login 校验口令并签发 JWT
func (a *AuthService) Login(ctx context.Context, email, password string) (token string, u *usermodel.User, err error) {
	u, err = a.store.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, errs.ErrInvalidCredential.WrapMsg("bad email or password")
	}
	if u.PasswordHash != hashPassword(password) {
		return "", nil, errs.ErrInvalidCredential.WrapMsg("bad email or password")
	}
	if u.Status != usermodel.UserNormal {
		return "", nil, errs.ErrInvalidCredential.WrapMsg("account disabled")
	}
	token, _, err = jwtlib.Generate(a.opts, u.UserID, u.Email)
	if err != nil {
		return "", nil, errs.WrapMsg(err, "sign token")
	}
	return token, u, nil
}

// Resolve 把原始凭证解析成用户记录。
// 过期/伪造 -> ErrInvalidCredential；sub 查无此人 -> ErrUnknownIdentity。
// 只做计算，不改连接状态（状态机归连接生命周期管理）。
func (a *AuthService) Resolve(ctx context.Context, credential string) (*usermodel.User, error) {
	claims, err := jwtlib.Verify(a.opts, credential)
	if err != nil {
		return nil, err
	}
	u, err := a.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return nil, errs.ErrUnknownIdentity.WrapMsg("subject vanished", "sub", claims.UserID)
		}
		return nil, err
	}
	if u.Status != usermodel.UserNormal {
		return nil, errs.ErrInvalidCredential.WrapMsg("account disabled")
	}
	return u, nil
}
