package voting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/pkg/cache"
)

type fakeConfigSource struct {
	configs map[models.VotePurpose]*models.QuorumConfig
	calls   int
}

func (f *fakeConfigSource) GetByPurpose(_ context.Context, purpose models.VotePurpose) (*models.QuorumConfig, error) {
	f.calls++
	cfg, ok := f.configs[purpose]
	if !ok {
		return nil, fmt.Errorf("quorum config %s: %w", purpose, domain.ErrNotFound)
	}
	copied := *cfg
	return &copied, nil
}

func TestResolverCachesConfig(t *testing.T) {
	source := &fakeConfigSource{configs: map[models.VotePurpose]*models.QuorumConfig{
		models.PurposeSimple: simpleCfg(),
	}}
	r := NewResolver(source, cache.NewMemory(), time.Minute, zap.NewNop())

	cfg, err := r.Resolve(context.Background(), models.PurposeSimple)
	require.NoError(t, err)
	assert.Equal(t, models.QuorumSimpleMajority, cfg.QuorumType)
	assert.Equal(t, 1, source.calls)

	// Second resolve is served from the cache.
	_, err = r.Resolve(context.Background(), models.PurposeSimple)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
}

func TestResolverInvalidate(t *testing.T) {
	source := &fakeConfigSource{configs: map[models.VotePurpose]*models.QuorumConfig{
		models.PurposeSimple: simpleCfg(),
	}}
	r := NewResolver(source, cache.NewMemory(), time.Minute, zap.NewNop())

	_, err := r.Resolve(context.Background(), models.PurposeSimple)
	require.NoError(t, err)

	source.configs[models.PurposeSimple].QuorumType = models.QuorumTwoThirds
	r.Invalidate(context.Background(), models.PurposeSimple)

	cfg, err := r.Resolve(context.Background(), models.PurposeSimple)
	require.NoError(t, err)
	assert.Equal(t, models.QuorumTwoThirds, cfg.QuorumType)
	assert.Equal(t, 2, source.calls)
}

func TestResolverExpiredEntryFallsThrough(t *testing.T) {
	source := &fakeConfigSource{configs: map[models.VotePurpose]*models.QuorumConfig{
		models.PurposeSimple: simpleCfg(),
	}}
	mem := cache.NewMemory()
	base := time.Now()
	mem.SetClock(func() time.Time { return base })
	r := NewResolver(source, mem, time.Minute, zap.NewNop())

	_, err := r.Resolve(context.Background(), models.PurposeSimple)
	require.NoError(t, err)

	base = base.Add(2 * time.Minute)
	_, err = r.Resolve(context.Background(), models.PurposeSimple)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestResolverUnknownPurpose(t *testing.T) {
	source := &fakeConfigSource{configs: map[models.VotePurpose]*models.QuorumConfig{}}
	r := NewResolver(source, cache.NewMemory(), time.Minute, zap.NewNop())

	_, err := r.Resolve(context.Background(), models.PurposeVetoOverride)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigurationError)
}

func TestResolverInactiveConfig(t *testing.T) {
	cfg := simpleCfg()
	cfg.Active = false
	source := &fakeConfigSource{configs: map[models.VotePurpose]*models.QuorumConfig{
		models.PurposeSimple: cfg,
	}}
	r := NewResolver(source, cache.NewMemory(), time.Minute, zap.NewNop())

	_, err := r.Resolve(context.Background(), models.PurposeSimple)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigurationError)
}
