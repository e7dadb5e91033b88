package uploadservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"kbdedup/internal/models"
	"kbdedup/internal/services/access"
)

const listCacheKeyPrefix = "kbdocs:"

func listCacheKey(kbID string) string {
	return listCacheKeyPrefix + kbID
}

func listCacheField(user *models.User, page models.DocumentPage) string {
	return fmt.Sprintf("%s:%d:%d", user.ID, page.Limit, page.Offset)
}

// ListDocuments returns the documents of kbID that user can see, newest
// first.
func (s *Service) ListDocuments(ctx context.Context, user *models.User, kbID string, page models.DocumentPage) ([]*models.Document, error) {
	op := pkg + "ListDocuments"

	log := s.log.With(slog.String("op", op), slog.String("kb_id", kbID), slog.String("user_id", user.ID))

	if kbID == "" || !page.IsValid() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}

	key, field := listCacheKey(kbID), listCacheField(user, page)

	if docs, ok := s.cachedList(ctx, log, key, field); ok {
		log.Debug("documents found in cache", slog.Int("count", len(docs)))
		return docs, nil
	}

	docs, err := s.store.ListVisible(ctx, kbID, user, page)
	if err != nil {
		log.Error("failed to list documents", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	if s.cache != nil {
		docsJSON, err := json.Marshal(docs)
		if err != nil {
			log.Error("failed to marshal documents", slog.String("error", err.Error()))
		} else if err := s.cache.SetField(ctx, key, field, docsJSON); err != nil {
			log.Error("failed to cache documents", slog.String("error", err.Error()))
		}
	}

	log.Debug("documents listed", slog.Int("count", len(docs)))

	return docs, nil
}

// Document returns the document with id if user can see it. Hidden documents
// are reported as not found.
func (s *Service) Document(ctx context.Context, user *models.User, id string) (*models.Document, error) {
	op := pkg + "Document"

	log := s.log.With(slog.String("op", op), slog.String("document_id", id), slog.String("user_id", user.ID))

	if id == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}

	doc, err := s.store.DocumentByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
		}
		log.Error("failed to get document", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	if !access.IsVisible(doc, user) {
		log.Debug("document hidden from user")
		return nil, fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
	}

	return doc, nil
}

// QuotaStatus reports the live private-file usage of user. It is read from
// the store on every call.
func (s *Service) QuotaStatus(ctx context.Context, user *models.User) (*models.QuotaUsage, error) {
	op := pkg + "QuotaStatus"

	if user.IsAdmin() {
		return &models.QuotaUsage{Limit: s.quota.Limit(), Exempt: true}, nil
	}

	used, err := s.store.PrivateFileCount(ctx, user.ID)
	if err != nil {
		s.log.Error("failed to count private files", slog.String("op", op), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	return &models.QuotaUsage{Used: used, Limit: s.quota.Limit()}, nil
}

func (s *Service) cachedList(ctx context.Context, log *slog.Logger, key string, field string) ([]*models.Document, bool) {
	if s.cache == nil {
		return nil, false
	}

	docsJSON, err := s.cache.GetField(ctx, key, field)
	if err != nil {
		log.Error("failed to read cache", slog.String("error", err.Error()))
		return nil, false
	}

	if docsJSON == "" {
		return nil, false
	}

	var docs []*models.Document
	if err := json.Unmarshal([]byte(docsJSON), &docs); err != nil {
		log.Error("failed to unmarshal cached documents", slog.String("error", err.Error()))
		return nil, false
	}

	return docs, true
}

func (s *Service) invalidateList(ctx context.Context, log *slog.Logger, kbID string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, listCacheKey(kbID)); err != nil {
		log.Error("failed to invalidate document list cache", slog.String("error", err.Error()))
	}
}
