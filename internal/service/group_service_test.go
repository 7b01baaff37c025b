package service

import (
	"context"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupService_CreateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	group, err := env.groups.CreateGroup(ctx, CreateGroupInput{Title: "Cats", Slug: "cats", Description: "Meow"})
	require.NoError(t, err)
	assert.NotZero(t, group.ID)

	_, err = env.groups.CreateGroup(ctx, CreateGroupInput{Title: "Cats again", Slug: "cats"})
	assertErrorCode(t, err, models.CodeConflict)

	_, err = env.groups.CreateGroup(ctx, CreateGroupInput{Title: "", Slug: "Bad Slug"})
	appErr := assertErrorCode(t, err, models.CodeValidation)
	assert.Contains(t, appErr.Fields, "title")
	assert.Contains(t, appErr.Fields, "slug")

	groups, err := env.groups.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestGroupService_DeleteUnknownGroup(t *testing.T) {
	env := newTestEnv(t)

	err := env.groups.DeleteGroup(context.Background(), "missing")
	assertErrorCode(t, err, models.CodeNotFound)
}
