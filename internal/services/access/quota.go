package access

import (
	"context"
	"fmt"

	"kbdedup/internal/models"
	"kbdedup/internal/repositories"
)

const DefaultMaxPrivateFiles = 3

type Admission struct {
	Admitted bool
	Used     int
	Limit    int
	Exempt   bool
}

func (a Admission) Usage() *models.QuotaUsage {
	return &models.QuotaUsage{Used: a.Used, Limit: a.Limit, Exempt: a.Exempt}
}

// QuotaEnforcer caps the number of private documents an ordinary user owns
// or is authorized for. The count is always read through the transaction
// that performs the consuming mutation, so check and act cannot interleave
// with another upload by the same user.
type QuotaEnforcer struct {
	maxPrivateFiles int
}

func NewQuotaEnforcer(maxPrivateFiles int) *QuotaEnforcer {
	if maxPrivateFiles < 0 {
		maxPrivateFiles = DefaultMaxPrivateFiles
	}

	return &QuotaEnforcer{maxPrivateFiles: maxPrivateFiles}
}

func (q *QuotaEnforcer) Limit() int {
	return q.maxPrivateFiles
}

func (q *QuotaEnforcer) TryReserve(ctx context.Context, tx repositories.DocumentTx, user *models.User, n int) (Admission, error) {
	op := pkg + "TryReserve"

	if user.IsAdmin() {
		return Admission{Admitted: true, Limit: q.maxPrivateFiles, Exempt: true}, nil
	}

	if n <= 0 {
		return Admission{Admitted: true, Limit: q.maxPrivateFiles}, nil
	}

	used, err := tx.PrivateFileCount(ctx, user.ID)
	if err != nil {
		return Admission{}, fmt.Errorf("%s: %w", op, err)
	}

	return Admission{
		Admitted: used+n <= q.maxPrivateFiles,
		Used:     used,
		Limit:    q.maxPrivateFiles,
	}, nil
}
