package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type IdentityCacheTestSuite struct {
	suite.Suite
	container testcontainers.Container
	cache     *cache.RedisIdentityCache
}

func TestIdentityCacheSuite(t *testing.T) {
	suite.Run(t, new(IdentityCacheTestSuite))
}

func (s *IdentityCacheTestSuite) SetupSuite() {
	t := s.T()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	s.container = container

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cache, err = cache.Connect(ctx, config.CacheConfig{RedisAddr: endpoint}, logger)
	require.NoError(t, err)
}

func (s *IdentityCacheTestSuite) TearDownSuite() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *IdentityCacheTestSuite) Test_SetGetDelete() {
	ctx := context.Background()
	t := s.T()
	identity := &application.Identity{ID: "u1", Company: "acme", Groups: []string{"admin"}, EmailVerified: true}

	_, ok, err := s.cache.Get(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.cache.Set(ctx, "token-a", identity, time.Minute))

	got, ok, err := s.cache.Get(ctx, "token-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, identity, got)

	require.NoError(t, s.cache.Delete(ctx, "token-a"))
	_, ok, err = s.cache.Get(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func (s *IdentityCacheTestSuite) Test_Expires() {
	ctx := context.Background()
	t := s.T()

	require.NoError(t, s.cache.Set(ctx, "token-b", &application.Identity{ID: "u2"}, 50*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, ok, err := s.cache.Get(ctx, "token-b")
		return err == nil && !ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNoopIdentityCache(t *testing.T) {
	var c application.IdentityCache = cache.NoopIdentityCache{}

	require.NoError(t, c.Set(context.Background(), "t", &application.Identity{ID: "x"}, time.Minute))
	_, ok, err := c.Get(context.Background(), "t")
	require.NoError(t, err)
	assert.False(t, ok)
}
