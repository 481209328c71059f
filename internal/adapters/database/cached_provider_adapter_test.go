package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/healia/backend/internal/adapters/cache"
	"github.com/zatekoja/healia/backend/internal/adapters/database"
	"github.com/zatekoja/healia/backend/internal/adapters/directory"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
)

type MockDirectoryProvider struct {
	mock.Mock
}

func (m *MockDirectoryProvider) ListProviders(ctx context.Context) ([]*entities.Provider, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Provider), args.Error(1)
}

func (m *MockDirectoryProvider) GetProvider(ctx context.Context, id string) (*entities.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Provider), args.Error(1)
}

func TestCachedProviderAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("second read is served from cache", func(t *testing.T) {
		source := new(MockDirectoryProvider)
		source.On("ListProviders", mock.Anything).Return(directory.DefaultProviders(), nil).Once()

		adapter := database.NewCachedProviderAdapter(source, cache.NewMemoryAdapter(), time.Minute)

		first, err := adapter.ListProviders(ctx)
		require.NoError(t, err)
		second, err := adapter.ListProviders(ctx)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		p, err := adapter.GetProvider(ctx, "3")
		require.NoError(t, err)
		assert.Equal(t, "Dr. Emily Rodriguez", p.Name)

		source.AssertNumberOfCalls(t, "ListProviders", 1)
	})

	t.Run("unknown id", func(t *testing.T) {
		source := new(MockDirectoryProvider)
		source.On("ListProviders", mock.Anything).Return(directory.DefaultProviders(), nil)

		adapter := database.NewCachedProviderAdapter(source, cache.NewMemoryAdapter(), time.Minute)
		_, err := adapter.GetProvider(ctx, "42")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("source errors are not cached", func(t *testing.T) {
		source := new(MockDirectoryProvider)
		source.On("ListProviders", mock.Anything).Return(nil, errors.New("db down")).Once()
		source.On("ListProviders", mock.Anything).Return(directory.DefaultProviders(), nil).Once()

		adapter := database.NewCachedProviderAdapter(source, cache.NewMemoryAdapter(), time.Minute)
		_, err := adapter.ListProviders(ctx)
		require.Error(t, err)

		list, err := adapter.ListProviders(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})

	t.Run("invalidate forces a reload", func(t *testing.T) {
		source := new(MockDirectoryProvider)
		source.On("ListProviders", mock.Anything).Return(directory.DefaultProviders(), nil).Twice()

		adapter := database.NewCachedProviderAdapter(source, cache.NewMemoryAdapter(), time.Minute)
		_, err := adapter.ListProviders(ctx)
		require.NoError(t, err)
		_, err = adapter.ListProviders(ctx)
		require.NoError(t, err)
		source.AssertNumberOfCalls(t, "ListProviders", 1)

		require.NoError(t, adapter.Invalidate(ctx))
		_, err = adapter.ListProviders(ctx)
		require.NoError(t, err)
		source.AssertNumberOfCalls(t, "ListProviders", 2)
	})
}
