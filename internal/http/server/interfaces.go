package server

import (
	"context"
	"io"

	"kbdedup/internal/models"
)

type DocumentService interface {
	Decide(ctx context.Context, req models.UploadRequest, content io.Reader) (*models.Verdict, error)
	ListDocuments(ctx context.Context, requester *models.User, kbID string, page models.DocumentPage) ([]*models.Document, error)
	Document(ctx context.Context, requester *models.User, id string) (*models.Document, error)
	QuotaStatus(ctx context.Context, requester *models.User) (*models.QuotaUsage, error)
}
