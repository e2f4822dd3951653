package voting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/pkg/cache"
)

const quorumColumns = `id, purpose, quorum_type, population_base, allow_abstention,
	abstention_counts_against, requires_roll_call, approve_message, reject_message,
	active, created_at, updated_at`

// ConfigRepository persists quorum configurations.
type ConfigRepository struct {
	db *pgxpool.Pool
}

// NewConfigRepository creates a quorum config repository.
func NewConfigRepository(db *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func scanConfig(row pgx.Row) (*models.QuorumConfig, error) {
	var cfg models.QuorumConfig
	err := row.Scan(&cfg.ID, &cfg.Purpose, &cfg.QuorumType, &cfg.PopulationBase,
		&cfg.AllowAbstention, &cfg.AbstentionCountsAgainst, &cfg.RequiresRollCall,
		&cfg.ApproveMessage, &cfg.RejectMessage, &cfg.Active, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetByPurpose returns the config for a purpose regardless of active flag.
func (r *ConfigRepository) GetByPurpose(ctx context.Context, purpose models.VotePurpose) (*models.QuorumConfig, error) {
	query := `SELECT ` + quorumColumns + ` FROM quorum_configs WHERE purpose = $1`
	cfg, err := scanConfig(r.db.QueryRow(ctx, query, purpose))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("quorum config %s: %w", purpose, domain.ErrNotFound)
	}
	return cfg, err
}

// List returns all configs ordered by purpose.
func (r *ConfigRepository) List(ctx context.Context) ([]models.QuorumConfig, error) {
	query := `SELECT ` + quorumColumns + ` FROM quorum_configs ORDER BY purpose`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []models.QuorumConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	return configs, rows.Err()
}

// Upsert creates or replaces the config for a purpose.
func (r *ConfigRepository) Upsert(ctx context.Context, cfg *models.QuorumConfig) error {
	query := `
		INSERT INTO quorum_configs (purpose, quorum_type, population_base, allow_abstention,
			abstention_counts_against, requires_roll_call, approve_message, reject_message, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (purpose) DO UPDATE SET
			quorum_type = EXCLUDED.quorum_type,
			population_base = EXCLUDED.population_base,
			allow_abstention = EXCLUDED.allow_abstention,
			abstention_counts_against = EXCLUDED.abstention_counts_against,
			requires_roll_call = EXCLUDED.requires_roll_call,
			approve_message = EXCLUDED.approve_message,
			reject_message = EXCLUDED.reject_message,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, cfg.Purpose, cfg.QuorumType, cfg.PopulationBase,
		cfg.AllowAbstention, cfg.AbstentionCountsAgainst, cfg.RequiresRollCall,
		cfg.ApproveMessage, cfg.RejectMessage, cfg.Active).
		Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
}

// SetActive flips the active flag for a purpose.
func (r *ConfigRepository) SetActive(ctx context.Context, purpose models.VotePurpose, active bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE quorum_configs SET active = $2, updated_at = NOW() WHERE purpose = $1`,
		purpose, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quorum config %s: %w", purpose, domain.ErrNotFound)
	}
	return nil
}

// ConfigSource loads a quorum config by purpose.
type ConfigSource interface {
	GetByPurpose(ctx context.Context, purpose models.VotePurpose) (*models.QuorumConfig, error)
}

// Resolver resolves the quorum rule for a purpose, caching configs with a
// TTL so the close path does not hit Postgres on every round.
type Resolver struct {
	repo   ConfigSource
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewResolver creates a quorum resolver.
func NewResolver(repo ConfigSource, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{repo: repo, cache: c, ttl: ttl, logger: logger}
}

func cacheKey(purpose models.VotePurpose) string {
	return "quorum:config:" + string(purpose)
}

// Resolve returns the active config for a purpose. A missing or inactive
// config is a configuration error: votes on that purpose cannot open.
func (r *Resolver) Resolve(ctx context.Context, purpose models.VotePurpose) (*models.QuorumConfig, error) {
	if data, ok, err := r.cache.Get(ctx, cacheKey(purpose)); err == nil && ok {
		var cfg models.QuorumConfig
		if err := json.Unmarshal(data, &cfg); err == nil {
			return r.checkActive(&cfg)
		}
	} else if err != nil {
		r.logger.Warn("quorum cache read failed, falling through to db", zap.Error(err))
	}

	cfg, err := r.repo.GetByPurpose(ctx, purpose)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no quorum config for purpose %s: %w", purpose, domain.ErrConfigurationError)
	}
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cfg); err == nil {
		if err := r.cache.Set(ctx, cacheKey(purpose), data, r.ttl); err != nil {
			r.logger.Warn("quorum cache write failed", zap.Error(err))
		}
	}
	return r.checkActive(cfg)
}

func (r *Resolver) checkActive(cfg *models.QuorumConfig) (*models.QuorumConfig, error) {
	if !cfg.Active {
		return nil, fmt.Errorf("quorum config for purpose %s is inactive: %w", cfg.Purpose, domain.ErrConfigurationError)
	}
	return cfg, nil
}

// Invalidate drops the cached config for a purpose after an admin change.
func (r *Resolver) Invalidate(ctx context.Context, purpose models.VotePurpose) {
	if err := r.cache.Delete(ctx, cacheKey(purpose)); err != nil {
		r.logger.Warn("quorum cache invalidation failed", zap.Error(err))
	}
}
