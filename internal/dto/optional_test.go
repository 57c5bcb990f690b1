package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostPatchTellsNullFromAbsent(t *testing.T) {
	var absent PostPatch
	require.NoError(t, json.Unmarshal([]byte(`{"text":"x"}`), &absent))
	assert.False(t, absent.Group.Set)
	assert.False(t, absent.Image.Set)

	var cleared PostPatch
	require.NoError(t, json.Unmarshal([]byte(`{"group":null,"image":null}`), &cleared))
	assert.True(t, cleared.Group.Set)
	assert.Nil(t, cleared.Group.Value)
	assert.True(t, cleared.Image.Set)
	assert.Nil(t, cleared.Image.Value)

	var set PostPatch
	require.NoError(t, json.Unmarshal([]byte(`{"group":3,"image":"posts/a.png"}`), &set))
	require.NotNil(t, set.Group.Value)
	assert.Equal(t, int64(3), *set.Group.Value)
	assert.Equal(t, "posts/a.png", *set.Image.Value)
}

func TestOptionalTypeError(t *testing.T) {
	var form PostForm
	err := json.Unmarshal([]byte(`{"text":"x","group":"cats"}`), &form)
	var typeErr *json.UnmarshalTypeError
	require.ErrorAs(t, err, &typeErr)
}
