package repository

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/tweet-scheduler/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()

	cred, err := repo.GetPrimary(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)

	_, err = repo.Save(ctx, &models.Credential{
		ExternalAccountID: "1", Handle: "first", DisplayName: "First",
		AccessToken: "t1", AccessTokenSecret: "s1",
	})
	require.NoError(t, err)

	id, err := repo.Save(ctx, &models.Credential{
		ExternalAccountID: "2", Handle: "second", DisplayName: "Second",
		AccessToken: "t2", AccessTokenSecret: "s2",
	})
	require.NoError(t, err)

	cred, err = repo.GetPrimary(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, id, cred.ID)
	assert.Equal(t, "second", cred.Handle)
	assert.Equal(t, "t2", cred.AccessToken)
	assert.Equal(t, "s2", cred.AccessTokenSecret)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM credentials").Scan(&count))
	assert.Equal(t, 1, count, "save replaces the previous credential")

	require.NoError(t, repo.RemoveAll(ctx))
	cred, err = repo.GetPrimary(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCommunityTagRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommunityTagRepository(db).(*communityTagRepository)
	repo.now = func() time.Time { return baseTime }
	ctx := context.Background()

	id, err := repo.Create(ctx, &models.CommunityTag{TagName: "golang", CommunityID: "42", CommunityName: "Gophers"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.CommunityTag{TagName: "ai", CommunityID: "7"})
	require.NoError(t, err)

	tags, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "ai", tags[0].TagName)
	assert.Empty(t, tags[0].CommunityName)

	require.NoError(t, repo.Update(ctx, &models.CommunityTag{ID: id, TagName: "go", CommunityID: "43"}))
	tag, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "go", tag.TagName)
	assert.Equal(t, "43", tag.CommunityID)

	assert.Error(t, repo.Update(ctx, &models.CommunityTag{ID: id + 50, TagName: "x", CommunityID: "1"}))

	require.NoError(t, repo.Remove(ctx, id))
	tag, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, tag)
}
