package memorydocumentrepo

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"kbdedup/internal/entities"
	"kbdedup/internal/models"
	"kbdedup/internal/repositories"
)

const pkg = "memoryDocumentRepo/"

const uniqueHashConstraint = "documents_kb_content_hash_key"

// Repository keeps documents in process memory. Each user has a one-slot
// lock; writes made inside WithinUserLock are staged and become visible to
// other callers only when the unit commits.
type Repository struct {
	mu          sync.RWMutex
	docs        map[string]*models.Document
	userLocks   map[string]chan struct{}
	lockTimeout time.Duration
}

func New(lockTimeout time.Duration) *Repository {
	return &Repository{
		docs:        make(map[string]*models.Document),
		userLocks:   make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

func (r *Repository) WithinUserLock(ctx context.Context, userID string, fn repositories.TxFunc) error {
	op := pkg + "WithinUserLock"

	lock := r.lockFor(userID)

	if err := r.acquire(ctx, lock); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { <-lock }()

	t := &tx{repo: r}

	if err := fn(ctx, t); err != nil {
		return err
	}

	// past this point the unit either commits fully or not at all
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.commit(t); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Repository) PrivateFileCount(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, doc := range r.docs {
		if doc.IsPrivate() && (doc.OwnerID == userID || doc.IsAuthorized(userID)) {
			count++
		}
	}

	return count, nil
}

func (r *Repository) ListVisible(_ context.Context, kbID string, user *models.User, page models.DocumentPage) ([]*models.Document, error) {
	r.mu.RLock()

	docs := make([]*models.Document, 0)
	for _, doc := range r.docs {
		if doc.KnowledgeBaseID != kbID {
			continue
		}
		if user.IsAdmin() || !doc.IsPrivate() || doc.OwnerID == user.ID || doc.IsAuthorized(user.ID) {
			docs = append(docs, clone(doc))
		}
	}

	r.mu.RUnlock()

	slices.SortFunc(docs, func(a, b *models.Document) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if page.Offset >= len(docs) {
		return []*models.Document{}, nil
	}
	docs = docs[page.Offset:]

	if page.Limit > 0 && page.Limit < len(docs) {
		docs = docs[:page.Limit]
	}

	return docs, nil
}

func (r *Repository) DocumentByID(_ context.Context, id string) (*models.Document, error) {
	op := pkg + "DocumentByID"

	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
	}

	return clone(doc), nil
}

func (r *Repository) lockFor(userID string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.userLocks[userID]
	if !ok {
		lock = make(chan struct{}, 1)
		r.userLocks[userID] = lock
	}

	return lock
}

func (r *Repository) acquire(ctx context.Context, lock chan struct{}) error {
	var timeout <-chan time.Time

	if r.lockTimeout > 0 {
		timer := time.NewTimer(r.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		return models.ErrLockTimeout
	}
}

func (r *Repository) commit(t *tx) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, doc := range t.created {
		if !doc.ForcedDuplicate && r.hashTakenLocked(doc.KnowledgeBaseID, doc.ContentHash, nil) {
			return &models.UniqueConstraintError{
				Constraint: uniqueHashConstraint,
				Err:        models.ErrUNIQUEConstraintFailed,
			}
		}
	}

	for _, g := range t.grants {
		_, ok := r.docs[g.DocumentID]
		if !ok && !slices.ContainsFunc(t.created, func(d *models.Document) bool { return d.ID == g.DocumentID }) {
			return models.ErrDocumentNotFound
		}
	}

	for _, doc := range t.created {
		r.docs[doc.ID] = doc
	}

	for _, g := range t.grants {
		doc := r.docs[g.DocumentID]
		if doc.OwnerID != g.UserID && !doc.IsAuthorized(g.UserID) {
			doc.AuthorizedUsers = append(doc.AuthorizedUsers, g.UserID)
		}
	}

	return nil
}

func (r *Repository) hashTakenLocked(kbID string, contentHash string, staged []*models.Document) bool {
	match := func(doc *models.Document) bool {
		return !doc.ForcedDuplicate && doc.KnowledgeBaseID == kbID && doc.ContentHash == contentHash
	}

	for _, doc := range r.docs {
		if match(doc) {
			return true
		}
	}

	return slices.ContainsFunc(staged, match)
}

type tx struct {
	repo    *Repository
	created []*models.Document
	grants  []entities.Grant
}

func (t *tx) DocumentsByHash(_ context.Context, kbID string, contentHash string) ([]*models.Document, error) {
	t.repo.mu.RLock()

	docs := make([]*models.Document, 0)
	for _, doc := range t.repo.docs {
		if doc.KnowledgeBaseID == kbID && doc.ContentHash == contentHash {
			docs = append(docs, t.withStagedGrants(clone(doc)))
		}
	}

	t.repo.mu.RUnlock()

	for _, doc := range t.created {
		if doc.KnowledgeBaseID == kbID && doc.ContentHash == contentHash {
			docs = append(docs, t.withStagedGrants(clone(doc)))
		}
	}

	slices.SortFunc(docs, func(a, b *models.Document) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return docs, nil
}

func (t *tx) PrivateFileCount(_ context.Context, userID string) (int, error) {
	count := 0

	visit := func(doc *models.Document) {
		doc = t.withStagedGrants(clone(doc))
		if doc.IsPrivate() && (doc.OwnerID == userID || doc.IsAuthorized(userID)) {
			count++
		}
	}

	t.repo.mu.RLock()
	for _, doc := range t.repo.docs {
		visit(doc)
	}
	t.repo.mu.RUnlock()

	for _, doc := range t.created {
		visit(doc)
	}

	return count, nil
}

func (t *tx) CreateDocument(_ context.Context, doc *models.Document) error {
	op := pkg + "CreateDocument"

	t.repo.mu.RLock()
	taken := !doc.ForcedDuplicate && t.repo.hashTakenLocked(doc.KnowledgeBaseID, doc.ContentHash, t.created)
	_, idTaken := t.repo.docs[doc.ID]
	t.repo.mu.RUnlock()

	if taken || idTaken {
		return fmt.Errorf("%s: %w", op, &models.UniqueConstraintError{
			Constraint: uniqueHashConstraint,
			Err:        models.ErrUNIQUEConstraintFailed,
		})
	}

	t.created = append(t.created, clone(doc))

	return nil
}

func (t *tx) AddAuthorizedUser(_ context.Context, docID string, userID string) error {
	op := pkg + "AddAuthorizedUser"

	t.repo.mu.RLock()
	_, ok := t.repo.docs[docID]
	t.repo.mu.RUnlock()

	if !ok && !slices.ContainsFunc(t.created, func(d *models.Document) bool { return d.ID == docID }) {
		return fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
	}

	t.grants = append(t.grants, entities.Grant{DocumentID: docID, UserID: userID})

	return nil
}

func (t *tx) withStagedGrants(doc *models.Document) *models.Document {
	for _, g := range t.grants {
		if g.DocumentID == doc.ID && doc.OwnerID != g.UserID && !doc.IsAuthorized(g.UserID) {
			doc.AuthorizedUsers = append(doc.AuthorizedUsers, g.UserID)
		}
	}

	return doc
}

func clone(doc *models.Document) *models.Document {
	c := *doc
	c.AuthorizedUsers = slices.Clone(doc.AuthorizedUsers)
	return &c
}
