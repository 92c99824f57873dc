package service

import (
	"context"
	"testing"

	"sharehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestService_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "Alice", "alice@example.com")

	request, err := env.requests.CreateRequest(ctx, alice.ID, "need a drill")
	require.NoError(t, err)
	assert.NotZero(t, request.ID)
	assert.False(t, request.Created.IsZero())

	_, err = env.requests.CreateRequest(ctx, 999, "need a drill")
	assert.Equal(t, KindNotFound, kindOf(t, err))

	view, err := env.requests.GetRequest(ctx, alice.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "need a drill", view.Description)
	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)

	_, err = env.requests.GetRequest(ctx, alice.ID, 999)
	assert.Equal(t, KindNotFound, kindOf(t, err))
	_, err = env.requests.GetRequest(ctx, 999, request.ID)
	assert.Equal(t, KindNotFound, kindOf(t, err))
}

func TestRequestService_EnrichedWithItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "Alice", "alice@example.com")
	bob := env.user(t, "Bob", "bob@example.com")

	request, err := env.requests.CreateRequest(ctx, alice.ID, "need a drill")
	require.NoError(t, err)

	_, err = env.items.CreateItem(ctx, bob.ID, &models.Item{
		Name:        "Дрель",
		Description: "powerful drill",
		Available:   true,
		RequestID:   request.ID,
	})
	require.NoError(t, err)

	views, err := env.requests.GetUserRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Items, 1)
	assert.Equal(t, "Дрель", views[0].Items[0].Name)
}

func TestRequestService_AllExcludesOwn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "Alice", "alice@example.com")
	bob := env.user(t, "Bob", "bob@example.com")

	_, err := env.requests.CreateRequest(ctx, alice.ID, "need a drill")
	require.NoError(t, err)
	_, err = env.requests.CreateRequest(ctx, bob.ID, "need a saw")
	require.NoError(t, err)

	views, err := env.requests.GetAllRequests(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "need a saw", views[0].Description)

	_, err = env.requests.GetAllRequests(ctx, 999, 0, 10)
	assert.Equal(t, KindNotFound, kindOf(t, err))
}
