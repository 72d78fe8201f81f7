package service

import (
	"context"
	"testing"

	"github.com/maheshrc27/tweet-scheduler/internal/repository"
	"github.com/maheshrc27/tweet-scheduler/internal/testutil"
	"github.com/maheshrc27/tweet-scheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityTagService(t *testing.T) {
	svc := NewCommunityTagService(repository.NewCommunityTagRepository(testutil.NewSQLiteDB(t)))
	ctx := context.Background()

	_, err := svc.Create(ctx, &transfer.CommunityTagInput{TagName: "go"})
	assert.ErrorIs(t, err, ErrInvalidTag)

	tag, err := svc.Create(ctx, &transfer.CommunityTagInput{TagName: " go ", CommunityID: "42", CommunityName: "Gophers"})
	require.NoError(t, err)
	assert.Equal(t, "go", tag.TagName)

	tag, err = svc.Update(ctx, tag.ID, &transfer.CommunityTagInput{TagName: "golang", CommunityID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "golang", tag.TagName)
	assert.Empty(t, tag.CommunityName)

	_, err = svc.Update(ctx, tag.ID+1, &transfer.CommunityTagInput{TagName: "x", CommunityID: "1"})
	assert.ErrorIs(t, err, ErrTagNotFound)

	tags, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	require.NoError(t, svc.Remove(ctx, tag.ID))
	assert.ErrorIs(t, svc.Remove(ctx, tag.ID), ErrTagNotFound)
}
