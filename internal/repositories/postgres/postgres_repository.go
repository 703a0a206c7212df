package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/examcore/exam-service/internal/cache"
	"github.com/examcore/exam-service/internal/repositories"
)

// RepositoryConfig carries the shared connections for the postgres layer.
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	Logger      *slog.Logger
}

// PostgreSQLRepository implements repositories.Repository over gorm with a
// redis cache-aside layer on the hot exam lookups.
type PostgreSQLRepository struct {
	db     *gorm.DB
	cache  *cache.CacheManager
	logger *slog.Logger

	exam     repositories.ExamRepository
	question repositories.QuestionRepository
	attempt  repositories.AttemptRepository
	user     repositories.UserRepository
}

func NewPostgreSQLRepository(config RepositoryConfig) *PostgreSQLRepository {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cacheManager := cache.NewCacheManager(config.RedisClient, logger)

	return &PostgreSQLRepository{
		db:       config.DB,
		cache:    cacheManager,
		logger:   logger,
		exam:     NewExamRepository(config.DB, cacheManager, logger),
		question: NewQuestionRepository(config.DB, cacheManager),
		attempt:  NewAttemptRepository(config.DB, cacheManager),
		user:     NewUserRepository(config.DB),
	}
}

func (r *PostgreSQLRepository) Exam() repositories.ExamRepository         { return r.exam }
func (r *PostgreSQLRepository) Question() repositories.QuestionRepository { return r.question }
func (r *PostgreSQLRepository) Attempt() repositories.AttemptRepository   { return r.attempt }
func (r *PostgreSQLRepository) User() repositories.UserRepository         { return r.user }

// WithTransaction runs fn inside a database transaction. The repository
// handed to fn is bound to the transaction, so every call through it joins
// the same unit of work.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The transactional view shares this repository's cache so
		// invalidations land in the same keyspace.
		txRepo := &PostgreSQLRepository{
			db:       tx,
			cache:    r.cache,
			logger:   r.logger,
			exam:     NewExamRepository(tx, r.cache, r.logger),
			question: NewQuestionRepository(tx, r.cache),
			attempt:  NewAttemptRepository(tx, r.cache),
			user:     NewUserRepository(tx),
		}
		return fn(txRepo)
	})
}

func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDB.Close()
}

// PostgreSQLRepositoryManager manages the repository lifecycle.
type PostgreSQLRepositoryManager struct {
	mu          sync.RWMutex
	config      RepositoryConfig
	repository  *PostgreSQLRepository
	initialized bool
}

func NewRepositoryManager(config RepositoryConfig) *PostgreSQLRepositoryManager {
	return &PostgreSQLRepositoryManager{config: config}
}

func (m *PostgreSQLRepositoryManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if m.config.DB == nil {
		return fmt.Errorf("repository manager: database connection is required")
	}

	m.repository = NewPostgreSQLRepository(m.config)
	m.initialized = true
	return nil
}

func (m *PostgreSQLRepositoryManager) GetRepository() repositories.Repository {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		panic("repository manager not initialized, call Initialize() first")
	}
	return m.repository
}

func (m *PostgreSQLRepositoryManager) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return fmt.Errorf("repository manager not initialized")
	}
	return m.repository.Ping(ctx)
}

func (m *PostgreSQLRepositoryManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil
	}
	err := m.repository.Close()
	m.initialized = false
	return err
}
