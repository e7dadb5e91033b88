package docs

import (
	"context"
	"io"

	"kbdedup/internal/models"
)

const pkg = "docsHandler/"

type DocumentUploader interface {
	Decide(ctx context.Context, req models.UploadRequest, content io.Reader) (*models.Verdict, error)
}

type DocumentProvider interface {
	ListDocuments(ctx context.Context, requester *models.User, kbID string, page models.DocumentPage) ([]*models.Document, error)
}

type DocumentGetter interface {
	Document(ctx context.Context, requester *models.User, id string) (*models.Document, error)
}

type QuotaProvider interface {
	QuotaStatus(ctx context.Context, requester *models.User) (*models.QuotaUsage, error)
}

func requesterFrom(ctx context.Context) (*models.User, bool) {
	requester, ok := ctx.Value(models.UserContextKey).(*models.User)
	return requester, ok && requester != nil
}
