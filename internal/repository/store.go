package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormStore is a GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewStore creates a new Store
func NewStore(db *gorm.DB) Store {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository {
	return NewUserRepository(s.db)
}

func (s *GormStore) Tasks() TaskRepository {
	return NewTaskRepository(s.db)
}

// Transaction runs fn inside a database transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Ping checks database connectivity
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
