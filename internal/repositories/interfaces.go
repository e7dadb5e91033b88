package repositories

import (
	"context"

	"kbdedup/internal/models"
)

// DocumentTx is the document table as seen from inside one per-user
// critical section. Every read and write made through it commits or rolls
// back together.
type DocumentTx interface {
	DocumentsByHash(ctx context.Context, kbID string, contentHash string) ([]*models.Document, error)
	PrivateFileCount(ctx context.Context, userID string) (int, error)
	CreateDocument(ctx context.Context, doc *models.Document) error
	AddAuthorizedUser(ctx context.Context, docID string, userID string) error
}

// TxFunc runs inside WithinUserLock. Returning an error rolls the unit back.
type TxFunc func(ctx context.Context, tx DocumentTx) error
