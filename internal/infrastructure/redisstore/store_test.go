package redisstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/internal/infrastructure/redisstore"
)

func givenStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redisstore.NewStore(rdb, "libra:"), mr
}

func Test_Read_MissingKey(t *testing.T) {
	// arrange
	store, _ := givenStore(t)

	// act
	data, err := store.Read(context.Background(), repository.BooksKey)

	// assert
	require.NoError(t, err)
	assert.Nil(t, data)
}

func Test_WriteThenRead_UsesPrefixedKey(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, mr := givenStore(t)

	// act
	err := store.Write(ctx, repository.BooksKey, []byte(`[{"id":"b1"}]`))
	data, readErr := store.Read(ctx, repository.BooksKey)

	// assert
	require.NoError(t, err)
	require.NoError(t, readErr)
	assert.JSONEq(t, `[{"id":"b1"}]`, string(data))
	assert.True(t, mr.Exists("libra:books"))
}

func Test_Drop(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, mr := givenStore(t)
	require.NoError(t, store.Write(ctx, repository.LoansKey, []byte(`[]`)))

	// act
	err := store.Drop(ctx, repository.LoansKey)

	// assert
	require.NoError(t, err)
	assert.False(t, mr.Exists("libra:loans"))
}
