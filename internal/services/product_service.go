package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"productos/internal/cache"
	"productos/internal/models"
	"productos/internal/repositories"
	"productos/pkg/rabbitmq"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	listCacheKey = "list"

	// storeReadTimeout bounds a store read shared by singleflight callers.
	storeReadTimeout = 10 * time.Second
)

func productCacheKey(id uint) string {
	return "id:" + strconv.FormatUint(uint64(id), 10)
}

// CreateProductInput holds the fields accepted when creating a product.
type CreateProductInput struct {
	Name  string
	Price float64
}

// UpdateProductInput holds the fields of a full update.
type UpdateProductInput struct {
	Name      string
	Price     float64
	Available bool
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	cache     cache.Cache
	publisher rabbitmq.Publisher
	log       zerolog.Logger
	group     singleflight.Group

	// gen counts invalidations. A read only fills the cache if no mutation
	// happened since it started.
	mu  sync.Mutex
	gen uint64
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, c cache.Cache, publisher rabbitmq.Publisher, log zerolog.Logger) *ProductService {
	if c == nil {
		c = cache.NoopCache{}
	}
	if publisher == nil {
		publisher = rabbitmq.NoopPublisher{}
	}
	return &ProductService{
		repo:      repo,
		cache:     c,
		publisher: publisher,
		log:       log.With().Str("component", "product_service").Logger(),
	}
}

// ListProducts returns every product, newest first.
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if s.fromCache(ctx, listCacheKey, &products) {
		return products, nil
	}

	gen := s.generation()
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	s.fillCache(ctx, listCacheKey, products, gen)
	return products, nil
}

// GetProduct returns a single product or repositories.ErrProductNotFound.
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	key := productCacheKey(id)

	var cached models.Product
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// the read is shared, so it must not die with the first caller
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeReadTimeout)
		defer cancel()

		gen := s.generation()
		product, err := s.repo.GetByID(readCtx, id)
		if err != nil {
			return nil, err
		}
		s.fillCache(readCtx, key, product, gen)
		return product, nil
	})
	if err != nil {
		return nil, err
	}

	product := *v.(*models.Product)
	return &product, nil
}

// CreateProduct stores a new product. New products are always available.
func (s *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:      in.Name,
		Price:     in.Price,
		Available: true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, rabbitmq.EventProductCreated, product)
	return product, nil
}

// UpdateProduct overwrites name, price and availability of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, in UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = in.Name
	product.Price = in.Price
	product.Available = in.Available
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, rabbitmq.EventProductUpdated, product)
	return product, nil
}

// ToggleAvailability flips the available flag of a product.
func (s *ProductService) ToggleAvailability(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Available = !product.Available
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, rabbitmq.EventProductAvailabilityToggled, product)
	return product, nil
}

// DeleteProduct removes a product.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, rabbitmq.EventProductDeleted, product)
	return nil
}

func (s *ProductService) fromCache(ctx context.Context, key string, dest any) bool {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	return found
}

func (s *ProductService) toCache(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (s *ProductService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// fillCache stores a value read from the store unless the cache was
// invalidated after gen was taken.
func (s *ProductService) fillCache(ctx context.Context, key string, value any, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.toCache(ctx, key, value)
}

// invalidate drops the list and the given product entries.
func (s *ProductService) invalidate(ctx context.Context, ids ...uint) {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()

	keys := []string{listCacheKey}
	for _, id := range ids {
		key := productCacheKey(id)
		s.group.Forget(key)
		keys = append(keys, key)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

func (s *ProductService) publish(ctx context.Context, eventType string, product *models.Product) {
	event := rabbitmq.NewEvent(eventType, product)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("type", eventType).Uint("product_id", product.ID).Msg("product event not published")
	}
}
