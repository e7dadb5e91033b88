package uploadservice

import (
	"context"
	"io"
	"time"

	"kbdedup/internal/models"
	"kbdedup/internal/repositories"
	"kbdedup/internal/services/fingerprint"
)

type DocumentStore interface {
	WithinUserLock(ctx context.Context, userID string, fn repositories.TxFunc) error
	PrivateFileCount(ctx context.Context, userID string) (int, error)
	ListVisible(ctx context.Context, kbID string, user *models.User, page models.DocumentPage) ([]*models.Document, error)
	DocumentByID(ctx context.Context, id string) (*models.Document, error)
}

type Hasher interface {
	Compute(r io.Reader) (fingerprint.Fingerprint, int64, error)
}

type Cache interface {
	GetField(ctx context.Context, key string, field string) (string, error)
	SetField(ctx context.Context, key string, field string, value interface{}) error
	Del(ctx context.Context, keys ...string) error
}

type Metrics interface {
	DecisionMade(role models.Role, action models.Action, kind models.ErrorKind, elapsed time.Duration)
	StorageConflictRetried()
}
