package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawLike struct {
	WhiteboardID string         `json:"whiteboardId"`
	UpdateType   string         `json:"updateType"`
	Data         map[string]any `json:"data,omitempty"`
	Seq          int64          `json:"seq,omitempty"`
}

func TestDecodeMap(t *testing.T) {
	p, err := DecodeMap[drawLike](map[string]any{
		"whiteboardId": "b1",
		"updateType":   "stroke",
		"data":         map[string]any{"points": []any{1.0, 2.0}},
		"seq":          42.0, // JSON 数字进来是 float64
	})
	require.NoError(t, err)
	assert.Equal(t, "b1", p.WhiteboardID)
	assert.Equal(t, "stroke", p.UpdateType)
	assert.Equal(t, int64(42), p.Seq)
	assert.NotNil(t, p.Data)
}

func TestDecodeMapIgnoresUnknownFields(t *testing.T) {
	p, err := DecodeMap[drawLike](map[string]any{
		"whiteboardId": "b1",
		"updateType":   "clear",
		"futureField":  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "clear", p.UpdateType)
}

func TestDecodeMapNestedJSONString(t *testing.T) {
	// data 偶尔以字符串JSON出现，兜底转成 map
	p, err := DecodeMap[drawLike](map[string]any{
		"whiteboardId": "b1",
		"updateType":   "stroke",
		"data":         `{"color":"#fff"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "#fff", p.Data["color"])
}

func TestDecodeMapNil(t *testing.T) {
	_, err := DecodeMap[drawLike](nil)
	assert.Error(t, err)
}
