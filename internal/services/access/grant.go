package access

import (
	"context"
	"fmt"
	"log/slog"

	"kbdedup/internal/models"
	"kbdedup/internal/repositories"
)

type GrantOutcome int

const (
	Granted GrantOutcome = iota
	AlreadyAuthorized
	GrantDenied
)

func (o GrantOutcome) String() string {
	switch o {
	case Granted:
		return "granted"
	case AlreadyAuthorized:
		return "already_authorized"
	case GrantDenied:
		return "denied"
	default:
		return "unknown"
	}
}

type GrantResult struct {
	Outcome   GrantOutcome
	Admission Admission
}

type Granter struct {
	log   *slog.Logger
	quota *QuotaEnforcer
}

func NewGranter(log *slog.Logger, quota *QuotaEnforcer) *Granter {
	return &Granter{
		log:   log,
		quota: quota,
	}
}

// Grant adds user to doc's authorized users unless the document is already
// visible to them. A new grant consumes one private-file slot; when the slot
// is not available nothing is written.
func (g *Granter) Grant(ctx context.Context, tx repositories.DocumentTx, doc *models.Document, user *models.User) (GrantResult, error) {
	op := pkg + "Grant"

	log := g.log.With(slog.String("op", op), slog.String("doc_id", doc.ID), slog.String("user_id", user.ID))

	if IsVisible(doc, user) {
		log.Debug("user already sees document, nothing to grant")
		return GrantResult{Outcome: AlreadyAuthorized}, nil
	}

	admission, err := g.quota.TryReserve(ctx, tx, user, 1)
	if err != nil {
		return GrantResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if !admission.Admitted {
		log.Info("grant denied by quota", slog.Int("used", admission.Used), slog.Int("limit", admission.Limit))
		return GrantResult{Outcome: GrantDenied, Admission: admission}, nil
	}

	if err := tx.AddAuthorizedUser(ctx, doc.ID, user.ID); err != nil {
		return GrantResult{}, fmt.Errorf("%s: %w", op, err)
	}

	doc.AuthorizedUsers = append(doc.AuthorizedUsers, user.ID)

	log.Debug("access granted")

	return GrantResult{Outcome: Granted, Admission: admission}, nil
}
