package feed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeItems(t *testing.T) {
	data := []byte(`[{"targetId":1,"heatValue":0.25},{"targetId":2,"heatValue":0.75}]`)
	items, err := decodeItems(data)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].TargetID)
	assert.Equal(t, 0.25, items[0].Heat)
}

func TestDecodeItemsClampsHeat(t *testing.T) {
	data := []byte(`[{"targetId":1,"heatValue":-0.5},{"targetId":2,"heatValue":3.0}]`)
	items, err := decodeItems(data)
	require.NoError(t, err)
	assert.Equal(t, 0.0, items[0].Heat)
	assert.Equal(t, 1.0, items[1].Heat)
}

func TestDecodeItemsBadPayload(t *testing.T) {
	_, err := decodeItems([]byte(`{"not":"a list"}`))
	assert.Error(t, err)
}

func TestFetchErrorUnwrap(t *testing.T) {
	inner := errors.New("timeout")
	err := &FetchError{Mode: "temperature", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "temperature")
}

func TestItemClamp(t *testing.T) {
	assert.Equal(t, 0.0, Item{Heat: -1}.Clamp().Heat)
	assert.Equal(t, 1.0, Item{Heat: 2}.Clamp().Heat)
	assert.Equal(t, 0.4, Item{Heat: 0.4}.Clamp().Heat)
}
