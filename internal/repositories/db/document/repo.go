package documentrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kbdedup/internal/entities"
	"kbdedup/internal/models"
	"kbdedup/internal/repositories"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pkg = "documentRepo/"

// advisoryLockNamespace is the first key of every per-user advisory lock so
// they cannot clash with advisory locks taken by other applications.
const advisoryLockNamespace int32 = 0x6b62

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqLockNotAvailable    = "55P03"
)

const selectDocument = `SELECT
			d.id AS id,
			d.knowledge_base_id AS knowledge_base_id,
			d.owner_id AS owner_id,
			d.name AS name,
			d.size AS size,
			d.content_hash AS content_hash,
			d.visibility AS visibility,
			d.forced_duplicate AS forced_duplicate,
			d.created_at AS created_at
		FROM documents d`

type repository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

func NewRepository(db *sqlx.DB, lockTimeout time.Duration) *repository {
	return &repository{db: db, lockTimeout: lockTimeout}
}

// WithinUserLock runs fn in one transaction holding the transaction-scoped
// advisory lock of userID. The lock is released on commit or rollback, also
// when the session dies.
func (r *repository) WithinUserLock(ctx context.Context, userID string, fn repositories.TxFunc) error {
	op := pkg + "WithinUserLock"

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if r.lockTimeout > 0 {
		_, err = tx.ExecContext(ctx,
			`SELECT set_config('lock_timeout', $1, true)`,
			fmt.Sprintf("%dms", r.lockTimeout.Milliseconds()))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock($1, hashtext($2))`,
		advisoryLockNamespace, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return nil
}

func (r *repository) PrivateFileCount(ctx context.Context, userID string) (int, error) {
	op := pkg + "PrivateFileCount"

	count, err := privateFileCount(ctx, r.db, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (r *repository) DocumentByID(ctx context.Context, id string) (*models.Document, error) {
	op := pkg + "DocumentByID"

	rawDoc := entities.Document{}

	err := r.db.GetContext(ctx, &rawDoc, selectDocument+`
		WHERE d.id = $1`,
		id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grants, err := getGrants(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toModel(rawDoc, grants), nil
}

func (r *repository) ListVisible(ctx context.Context, kbID string, user *models.User, page models.DocumentPage) ([]*models.Document, error) {
	op := pkg + "ListVisible"

	rawDocs := make([]entities.Document, 0)

	query := selectDocument + `
		WHERE d.knowledge_base_id = $1
		AND (
			$3 = TRUE
			OR d.visibility = 'public'
			OR d.owner_id = $2
			OR EXISTS (
				SELECT 1 FROM document_grants g
				WHERE g.document_id = d.id AND g.user_id = $2
			)
		)
		ORDER BY d.created_at DESC, d.id ASC`

	args := []any{kbID, user.ID, user.IsAdmin()}

	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += ` LIMIT $4`
	}

	args = append(args, page.Offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	err := r.db.SelectContext(ctx, &rawDocs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	docs := make([]*models.Document, 0, len(rawDocs))

	for _, rawDoc := range rawDocs {
		grants, err := getGrants(ctx, r.db, rawDoc.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		docs = append(docs, toModel(rawDoc, grants))
	}

	return docs, nil
}

type txRepository struct {
	tx *sqlx.Tx
}

func (t *txRepository) DocumentsByHash(ctx context.Context, kbID string, contentHash string) ([]*models.Document, error) {
	op := pkg + "DocumentsByHash"

	rawDocs := make([]entities.Document, 0)

	err := t.tx.SelectContext(ctx, &rawDocs, selectDocument+`
		WHERE d.knowledge_base_id = $1 AND d.content_hash = $2
		ORDER BY d.created_at ASC, d.id ASC`,
		kbID, contentHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	docs := make([]*models.Document, 0, len(rawDocs))

	for _, rawDoc := range rawDocs {
		grants, err := getGrants(ctx, t.tx, rawDoc.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		docs = append(docs, toModel(rawDoc, grants))
	}

	return docs, nil
}

func (t *txRepository) PrivateFileCount(ctx context.Context, userID string) (int, error) {
	op := pkg + "PrivateFileCount"

	count, err := privateFileCount(ctx, t.tx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (t *txRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	op := pkg + "CreateDocument"

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO documents (id, knowledge_base_id, owner_id, name, size, content_hash, visibility, forced_duplicate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.KnowledgeBaseID, doc.OwnerID, doc.Name, doc.Size, doc.ContentHash, string(doc.Visibility), doc.ForcedDuplicate, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return nil
}

func (t *txRepository) AddAuthorizedUser(ctx context.Context, docID string, userID string) error {
	op := pkg + "AddAuthorizedUser"

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO document_grants (document_id, user_id) VALUES ($1, $2)
		ON CONFLICT (document_id, user_id) DO NOTHING`,
		docID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return nil
}

func privateFileCount(ctx context.Context, q sqlx.QueryerContext, userID string) (int, error) {
	var count int

	err := sqlx.GetContext(ctx, q, &count,
		`SELECT COUNT(*)
		FROM documents d
		WHERE d.visibility = 'private'
		AND (
			d.owner_id = $1
			OR EXISTS (
				SELECT 1 FROM document_grants g
				WHERE g.document_id = d.id AND g.user_id = $1
			)
		)`,
		userID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func getGrants(ctx context.Context, q sqlx.QueryerContext, docID string) ([]string, error) {
	op := pkg + "getGrants"

	userIDs := make([]string, 0)

	err := sqlx.SelectContext(ctx, q, &userIDs,
		`SELECT
			g.user_id
		FROM document_grants g
		WHERE g.document_id = $1
		ORDER BY g.granted_at ASC, g.user_id ASC`,
		docID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return userIDs, nil
}

func toModel(rawDoc entities.Document, grants []string) *models.Document {
	return &models.Document{
		ID:              rawDoc.ID,
		KnowledgeBaseID: rawDoc.KnowledgeBaseID,
		OwnerID:         rawDoc.OwnerID,
		Name:            rawDoc.Name,
		Size:            rawDoc.Size,
		ContentHash:     rawDoc.ContentHash,
		Visibility:      models.Visibility(rawDoc.Visibility),
		ForcedDuplicate: rawDoc.ForcedDuplicate,
		AuthorizedUsers: grants,
		CreatedAt:       rawDoc.CreatedAt,
	}
}

func mapError(err error) error {
	var pgErr *pq.Error
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pqUniqueViolation:
		return &models.UniqueConstraintError{
			Constraint: pgErr.Constraint,
			Err:        models.ErrUNIQUEConstraintFailed,
		}
	case pqForeignKeyViolation:
		return models.ErrDocumentNotFound
	case pqLockNotAvailable:
		return models.ErrLockTimeout
	default:
		return err
	}
}
