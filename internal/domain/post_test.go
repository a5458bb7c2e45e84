package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostSort(t *testing.T) {
	for in, want := range map[string]PostSort{
		"":           SortNew,
		"new":        SortNew,
		"old":        SortOld,
		"most_likes": SortMostLikes,
	} {
		got, err := ParsePostSort(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParsePostSort("wrong")
	require.Error(t, err)
}

func TestPostWithLikes_JSONIsFlat(t *testing.T) {
	b, err := json.Marshal(PostWithLikes{Post: Post{ID: 1, UserID: 2, Body: "hi"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"user_id":2,"body":"hi","image_url":null,"likes":0}`, string(b))
}

func TestAuthError_Unwrap(t *testing.T) {
	err := Unauthorized("Invalid email or password", ErrUserNotFound)

	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.False(t, errors.Is(err, ErrBadCredentials))
	assert.Equal(t, "Invalid email or password", err.Error())
}
