package uploadservice

import (
	"context"
	"fmt"

	"kbdedup/internal/models"
	"kbdedup/internal/repositories"
	"kbdedup/internal/services/access"

	uuid "github.com/satori/go.uuid"
)

type decision struct {
	req     models.UploadRequest
	user    *models.User
	hash    string
	size    int64
	match   models.Match
	mutated bool
}

type decisionKey struct {
	role  models.Role
	match models.MatchKind
}

type action func(ctx context.Context, tx repositories.DocumentTx, d *decision) (*models.Verdict, error)

func (s *Service) newDispatchTable() map[decisionKey]action {
	return map[decisionKey]action{
		{role: models.RoleAdmin, match: models.NoMatch}:      s.createRequested,
		{role: models.RoleAdmin, match: models.VisibleMatch}: s.confirmOrForce,
		{role: models.RoleAdmin, match: models.HiddenMatch}:  s.confirmOrForce,
		{role: models.RoleUser, match: models.NoMatch}:       s.createRequested,
		{role: models.RoleUser, match: models.VisibleMatch}:  s.rejectVisibleDuplicate,
		{role: models.RoleUser, match: models.HiddenMatch}:   s.grantHidden,
	}
}

// createRequested stores new content. Ordinary users always get a private
// document and pay one quota slot for it.
func (s *Service) createRequested(ctx context.Context, tx repositories.DocumentTx, d *decision) (*models.Verdict, error) {
	visibility := d.req.Visibility
	if !d.user.IsAdmin() {
		visibility = models.VisibilityPrivate
	}

	return s.create(ctx, tx, d, visibility, false)
}

func (s *Service) confirmOrForce(ctx context.Context, tx repositories.DocumentTx, d *decision) (*models.Verdict, error) {
	if !d.req.Force {
		return &models.Verdict{
			Action:               models.ActionReuseExisting,
			Document:             d.match.Document,
			Message:              "identical content already exists in this knowledge base, upload again with force to store a duplicate",
			RequiresConfirmation: true,
		}, nil
	}

	return s.create(ctx, tx, d, d.req.Visibility, true)
}

func (s *Service) rejectVisibleDuplicate(_ context.Context, _ repositories.DocumentTx, d *decision) (*models.Verdict, error) {
	return &models.Verdict{
		Action:    models.ActionReject,
		Document:  d.match.Document,
		ErrorKind: models.ErrKindDuplicateVisibleConflict,
		Message:   models.ErrDuplicateVisibleConflict.Error(),
	}, nil
}

func (s *Service) grantHidden(ctx context.Context, tx repositories.DocumentTx, d *decision) (*models.Verdict, error) {
	res, err := s.granter.Grant(ctx, tx, d.match.Document, d.user)
	if err != nil {
		return nil, err
	}

	switch res.Outcome {
	case access.GrantDenied:
		// the hidden document stays hidden
		return quotaExceeded(res.Admission), nil
	case access.Granted:
		d.mutated = true
		return &models.Verdict{
			Action:   models.ActionReuseExisting,
			Document: d.match.Document,
			Quota:    usageAfter(res.Admission, 1),
		}, nil
	default:
		return &models.Verdict{
			Action:   models.ActionReuseExisting,
			Document: d.match.Document,
		}, nil
	}
}

func (s *Service) create(ctx context.Context, tx repositories.DocumentTx, d *decision, visibility models.Visibility, forced bool) (*models.Verdict, error) {
	slots := 0
	if visibility == models.VisibilityPrivate {
		slots = 1
	}

	admission, err := s.quota.TryReserve(ctx, tx, d.user, slots)
	if err != nil {
		return nil, err
	}

	if !admission.Admitted {
		return quotaExceeded(admission), nil
	}

	doc := &models.Document{
		ID:              uuid.NewV4().String(),
		KnowledgeBaseID: d.req.KnowledgeBaseID,
		OwnerID:         d.user.ID,
		Name:            d.req.Name,
		Size:            d.size,
		ContentHash:     d.hash,
		Visibility:      visibility,
		ForcedDuplicate: forced,
		AuthorizedUsers: []string{},
		CreatedAt:       s.opts.Clock.Now().UTC(),
	}

	if err := tx.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	d.mutated = true

	return &models.Verdict{
		Action:   models.ActionCreate,
		Document: doc,
		Quota:    usageAfter(admission, slots),
	}, nil
}

func quotaExceeded(a access.Admission) *models.Verdict {
	return &models.Verdict{
		Action:    models.ActionReject,
		ErrorKind: models.ErrKindQuotaExceeded,
		Message:   fmt.Sprintf("%s: %d of %d private files in use", models.ErrQuotaExceeded, a.Used, a.Limit),
		Quota:     a.Usage(),
	}
}

func usageAfter(a access.Admission, consumed int) *models.QuotaUsage {
	usage := a.Usage()
	if !usage.Exempt {
		usage.Used += consumed
	}
	return usage
}
