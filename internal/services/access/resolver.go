package access

import (
	"context"
	"fmt"

	"kbdedup/internal/models"
	"kbdedup/internal/repositories"
)

const pkg = "access/"

// Resolve looks up documents of kbID sharing contentHash and classifies the
// match for user. A visible match always beats a hidden one; ties go to the
// earliest created document.
func Resolve(ctx context.Context, tx repositories.DocumentTx, contentHash string, kbID string, user *models.User) (models.Match, error) {
	op := pkg + "Resolve"

	docs, err := tx.DocumentsByHash(ctx, kbID, contentHash)
	if err != nil {
		return models.Match{}, fmt.Errorf("%s: %w", op, err)
	}

	var visible, hidden *models.Document

	for _, doc := range docs {
		if IsVisible(doc, user) {
			visible = older(visible, doc)
		} else {
			hidden = older(hidden, doc)
		}
	}

	switch {
	case visible != nil:
		return models.Match{Kind: models.VisibleMatch, Document: visible}, nil
	case hidden != nil:
		return models.Match{Kind: models.HiddenMatch, Document: hidden}, nil
	default:
		return models.Match{Kind: models.NoMatch}, nil
	}
}

func older(current, candidate *models.Document) *models.Document {
	if current == nil || candidate.CreatedAt.Before(current.CreatedAt) {
		return candidate
	}
	return current
}
