package metrics

import (
	"testing"
	"time"

	"kbdedup/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.DecisionMade(models.RoleUser, models.ActionCreate, "", 5*time.Millisecond)
	m.DecisionMade(models.RoleUser, models.ActionReject, models.ErrKindQuotaExceeded, time.Millisecond)
	m.DecisionMade(models.RoleUser, models.ActionReject, models.ErrKindQuotaExceeded, time.Millisecond)
	m.StorageConflictRetried()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("user", "create", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("user", "reject", "quota_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageConflicts))
	assert.Equal(t, 1, testutil.CollectAndCount(m.decisionDuration))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}
