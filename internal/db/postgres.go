package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/types"
	"github.com/yungbote/knowledgebase-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "knowledgebase", log)
	sslMode := utils.GetEnv("POSTGRES_SSLMODE", "disable", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		postgresUser, postgresPassword, postgresHost, postgresPort, postgresName, sslMode)

	serviceLog.Info("Connecting to Postgres...", "host", postgresHost, "db", postgresName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Topic{},
		&types.Mindmap{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	if err := s.db.Exec(`
		ALTER TABLE "mindmap"
		ADD CONSTRAINT "fk_mindmap_user_id"
		FOREIGN KEY ("user_id")
		REFERENCES "app_user"("id")
		ON DELETE CASCADE
	`).Error; err != nil && !isDuplicateConstraint(err) {
		return fmt.Errorf("failed to add fk_mindmap_user_id: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "topic"
		ADD CONSTRAINT "fk_topic_author_id"
		FOREIGN KEY ("author_id")
		REFERENCES "app_user"("id")
		ON DELETE CASCADE
	`).Error; err != nil && !isDuplicateConstraint(err) {
		return fmt.Errorf("failed to add fk_topic_author_id: %w", err)
	}
	return nil
}

func isDuplicateConstraint(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "duplicate"))
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
