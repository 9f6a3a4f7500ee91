package errs

import (
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesByCode(t *testing.T) {
	err := ErrAccessDenied.WrapMsg("board", "boardId", "b1")
	assert.True(t, ErrAccessDenied.Is(err))
	assert.False(t, ErrBoardNotFound.Is(err))

	// 继续往外包也能判中
	outer := pkgerrors.WithMessage(err, "while joining")
	assert.True(t, ErrAccessDenied.Is(outer))
}

func TestWrapMsgAccumulatesDetail(t *testing.T) {
	err := ErrMalformedEvent.WrapMsg("missing event name")
	ce := AsCodeError(err)
	require.NotNil(t, ce)
	assert.Equal(t, MalformedEventCode, ce.Code)
	assert.Contains(t, ce.Detail, "missing event name")

	// kv 拼接进 detail
	err = ErrRelayFailure.WrapMsg("send queue full", "connID", "c1")
	ce = AsCodeError(err)
	require.NotNil(t, ce)
	assert.Contains(t, ce.Detail, "connID=c1")
}

func TestWrapDoesNotMutateSentinel(t *testing.T) {
	_ = ErrArgs.WrapMsg("first", "k", "v")
	assert.Empty(t, ErrArgs.Detail, "sentinel must stay clean after WrapMsg")
}

func TestWithDetail(t *testing.T) {
	ce := ErrInternal.WithDetail("db down")
	ce = ce.WithDetail("retrying")
	assert.Equal(t, InternalCode, ce.Code)
	assert.Equal(t, "db down, retrying", ce.Detail)
}

func TestAsCodeErrorMiss(t *testing.T) {
	assert.Nil(t, AsCodeError(pkgerrors.New("plain")))
	assert.Nil(t, AsCodeError(nil))
}

func TestNewCarriesKV(t *testing.T) {
	err := New("lookup failed", "userID", "u1")
	assert.Equal(t, UnknownCode, err.Code)
	assert.Contains(t, err.Msg, "userID=u1")
}

func TestErrorString(t *testing.T) {
	ce := ErrBoardNotFound.WithDetail("b1")
	assert.Equal(t, "1301 whiteboard not found b1", ce.Error())
}
