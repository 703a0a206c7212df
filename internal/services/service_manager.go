package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/examcore/exam-service/internal/events"
	"github.com/examcore/exam-service/internal/mail"
	"github.com/examcore/exam-service/internal/repositories"
	"github.com/examcore/exam-service/internal/validator"
)

// DefaultServiceManager wires the concrete services over one repository.
type DefaultServiceManager struct {
	mu sync.RWMutex

	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.Publisher
	mailer    mail.Mailer
	authCfg   AuthConfig

	examService     ExamService
	questionService QuestionService
	attemptService  AttemptService
	authService     AuthService
	exportService   ExportService

	initialized bool
}

func NewDefaultServiceManager(
	repo repositories.Repository,
	logger *slog.Logger,
	v *validator.Validator,
	publisher events.Publisher,
	mailer mail.Mailer,
	authCfg AuthConfig,
) *DefaultServiceManager {
	return &DefaultServiceManager{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		mailer:    mailer,
		authCfg:   authCfg,
	}
}

func (m *DefaultServiceManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if m.repo == nil {
		return fmt.Errorf("service manager: repository is required")
	}
	if m.publisher == nil {
		return fmt.Errorf("service manager: event publisher is required")
	}
	if m.mailer == nil {
		return fmt.Errorf("service manager: mailer is required")
	}

	m.examService = NewExamService(m.repo, m.logger, m.validator, m.publisher)
	m.questionService = NewQuestionService(m.repo, m.logger, m.validator)
	m.attemptService = NewAttemptService(m.repo, m.logger, m.validator, m.publisher)
	m.authService = NewAuthService(m.repo, m.logger, m.validator, m.publisher, m.mailer, m.authCfg)
	m.exportService = NewExportService(m.repo, m.logger)

	m.initialized = true
	m.logger.Info("service manager initialized")
	return nil
}

func (m *DefaultServiceManager) GetExamService() ExamService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.mustBeInitialized()
	return m.examService
}

func (m *DefaultServiceManager) GetQuestionService() QuestionService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.mustBeInitialized()
	return m.questionService
}

func (m *DefaultServiceManager) GetAttemptService() AttemptService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.mustBeInitialized()
	return m.attemptService
}

func (m *DefaultServiceManager) GetAuthService() AuthService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.mustBeInitialized()
	return m.authService
}

func (m *DefaultServiceManager) GetExportService() ExportService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.mustBeInitialized()
	return m.exportService
}

func (m *DefaultServiceManager) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	return m.repo.Ping(ctx)
}

func (m *DefaultServiceManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil
	}

	if err := m.publisher.Close(); err != nil {
		m.logger.Warn("event publisher close failed", "error", err)
	}

	m.initialized = false
	m.logger.Info("service manager shut down")
	return nil
}

func (m *DefaultServiceManager) mustBeInitialized() {
	if !m.initialized {
		panic("service manager not initialized, call Initialize() first")
	}
}
