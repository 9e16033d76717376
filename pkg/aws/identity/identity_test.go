package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCache_MemoizesPerRegion(t *testing.T) {
	ctrl := gomock.NewController(t)
	getter := NewMockGetter(ctrl)

	east := &CallerIdentity{Account: "123456789012", Region: "us-east-1"}
	west := &CallerIdentity{Account: "123456789012", Region: "us-west-2"}
	getter.EXPECT().GetCallerIdentity(gomock.Any(), "us-east-1").Return(east, nil).Times(1)
	getter.EXPECT().GetCallerIdentity(gomock.Any(), "us-west-2").Return(west, nil).Times(1)

	cache := NewCache(getter)
	ctx := context.Background()

	for range 3 {
		got, err := cache.GetCallerIdentity(ctx, "us-east-1")
		require.NoError(t, err)
		assert.Equal(t, east, got)
	}
	got, err := cache.GetCallerIdentity(ctx, "us-west-2")
	require.NoError(t, err)
	assert.Equal(t, west, got)
}

func TestCache_MemoizesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	getter := NewMockGetter(ctrl)
	getter.EXPECT().GetCallerIdentity(gomock.Any(), "").Return(nil, assert.AnError).Times(1)

	cache := NewCache(getter)
	for range 2 {
		_, err := cache.GetCallerIdentity(context.Background(), "")
		assert.ErrorIs(t, err, assert.AnError)
	}
}

func TestCache_Clear(t *testing.T) {
	ctrl := gomock.NewController(t)
	getter := NewMockGetter(ctrl)
	getter.EXPECT().GetCallerIdentity(gomock.Any(), "us-east-1").Return(&CallerIdentity{Account: "1"}, nil).Times(2)

	cache := NewCache(getter)
	_, _ = cache.GetCallerIdentity(context.Background(), "us-east-1")
	cache.Clear()
	_, _ = cache.GetCallerIdentity(context.Background(), "us-east-1")
}
