package services_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"productos/internal/cache"
	"productos/internal/models"
	"productos/internal/repositories"
	"productos/internal/services"
	"productos/pkg/rabbitmq"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRepository pauses the next armed read after it has loaded its
// result, until release is closed.
type blockingRepository struct {
	*repositories.MemoryProductRepository

	blockGetByID atomic.Bool
	blockGetAll  atomic.Bool
	loaded       chan struct{}
	release      chan struct{}
}

func (r *blockingRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	product, err := r.MemoryProductRepository.GetByID(ctx, id)
	if r.blockGetByID.CompareAndSwap(true, false) {
		close(r.loaded)
		<-r.release
	}
	return product, err
}

func (r *blockingRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products, err := r.MemoryProductRepository.GetAll(ctx)
	if r.blockGetAll.CompareAndSwap(true, false) {
		close(r.loaded)
		<-r.release
	}
	return products, err
}

func setupCachedService(t *testing.T) (*services.ProductService, *blockingRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := &blockingRepository{
		MemoryProductRepository: repositories.NewMemoryProductRepository(),
		loaded:                  make(chan struct{}),
		release:                 make(chan struct{}),
	}
	c := cache.NewRedisCacheWithClient(client, "test:", time.Minute)

	return services.NewProductService(repo, c, rabbitmq.NoopPublisher{}, zerolog.Nop()), repo, mr
}

func TestProductService_DeleteDuringCachedRead(t *testing.T) {
	service, repo, mr := setupCachedService(t)

	created, err := service.CreateProduct(ctx, services.CreateProductInput{Name: "Mouse", Price: 50})
	require.NoError(t, err)

	repo.blockGetByID.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := service.GetProduct(ctx, created.ID)
		done <- err
	}()

	<-repo.loaded
	require.NoError(t, service.DeleteProduct(ctx, created.ID))
	close(repo.release)

	// the read started before the delete, so it may still return the old row
	require.NoError(t, <-done)
	assert.False(t, mr.Exists("test:id:1"))

	product, err := service.GetProduct(ctx, created.ID)
	assert.Nil(t, product)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

func TestProductService_ToggleDuringCachedList(t *testing.T) {
	service, repo, mr := setupCachedService(t)

	created, err := service.CreateProduct(ctx, services.CreateProductInput{Name: "Mouse", Price: 50})
	require.NoError(t, err)

	repo.blockGetAll.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := service.ListProducts(ctx)
		done <- err
	}()

	<-repo.loaded
	_, err = service.ToggleAvailability(ctx, created.ID)
	require.NoError(t, err)
	close(repo.release)

	require.NoError(t, <-done)
	assert.False(t, mr.Exists("test:list"))

	products, err := service.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.False(t, products[0].Available)
}

func TestProductService_CachedReadWithoutMutationFillsCache(t *testing.T) {
	service, _, mr := setupCachedService(t)

	created, err := service.CreateProduct(ctx, services.CreateProductInput{Name: "Mouse", Price: 50})
	require.NoError(t, err)

	_, err = service.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	_, err = service.ListProducts(ctx)
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:id:1"))
	assert.True(t, mr.Exists("test:list"))
}
