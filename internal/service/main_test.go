package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube-backend/internal/config"
	"yatube-backend/internal/data"
	"yatube-backend/internal/dto"
	"yatube-backend/internal/mapper"
)

type testEnv struct {
	db  *gorm.DB
	rdb *redis.Client
	mr  *miniredis.Miniredis
	reg *Registry
}

var testJWT = config.JWTConfig{
	Secret:     "test-secret",
	Issuer:     "yatube",
	AccessTTL:  time.Hour,
	RefreshTTL: 24 * time.Hour,
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := data.Open(sqlite.Open(dsn), zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive for the whole test
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, data.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	reg := NewRegistry(Deps{
		DB:    db,
		Redis: rdb,
		JWT:   testJWT,
		App:   config.AppConfig{GroupCacheTTL: time.Minute, FeedMaxLength: 3},
	})
	return &testEnv{db: db, rdb: rdb, mr: mr, reg: reg}
}

func (e *testEnv) user(t *testing.T, username string) *dto.LoginUser {
	t.Helper()
	u, err := e.reg.User.Create(context.Background(), username, "password123", false)
	require.NoError(t, err)
	return mapper.ToLoginUser(u)
}

func (e *testEnv) staff(t *testing.T, username string) *dto.LoginUser {
	t.Helper()
	u, err := e.reg.User.Create(context.Background(), username, "password123", true)
	require.NoError(t, err)
	return mapper.ToLoginUser(u)
}

func (e *testEnv) post(t *testing.T, author *dto.LoginUser, text string) int64 {
	t.Helper()
	p, err := e.reg.Post.Create(context.Background(), author, dto.PostForm{Text: text})
	require.NoError(t, err)
	return p.ID
}
