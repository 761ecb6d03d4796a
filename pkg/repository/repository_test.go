package repository

import (
	"context"
	"errors"
	"testing"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentRepo() *MemoryRepository[models.Payment] {
	return NewMemoryRepo(func(p models.Payment) string { return p.ID })
}

func TestMemoryRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := paymentRepo()

	p := models.Payment{ID: "pay-1", OrderID: "ord-1", Amount: 50}
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.Load(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", got.OrderID)

	p.Status = models.PAYMENT_STATUS_APPROVED
	require.NoError(t, repo.Update(ctx, p))
	got, err = repo.Load(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PAYMENT_STATUS_APPROVED, got.Status)

	require.NoError(t, repo.Delete(ctx, "pay-1"))
	_, err = repo.Load(ctx, "pay-1")
	assert.True(t, errors.Is(err, svcerror.ErrNotFoundError))
}

func TestMemoryRepoUpdateUnknownID(t *testing.T) {
	repo := paymentRepo()
	err := repo.Update(context.Background(), models.Payment{ID: "missing"})
	assert.True(t, errors.Is(err, svcerror.ErrNotFoundError))
}

func TestFindByForeignKey(t *testing.T) {
	ctx := context.Background()
	repo := paymentRepo()
	require.NoError(t, repo.Save(ctx, models.Payment{ID: "pay-1", OrderID: "ord-1"}))
	require.NoError(t, repo.Save(ctx, models.Payment{ID: "pay-2", OrderID: "ord-2"}))

	got, ok, err := Find(ctx, Repository[models.Payment](repo), func(p models.Payment) bool {
		return p.OrderID == "ord-2"
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "pay-2", got.ID)

	_, ok, err = Find(ctx, Repository[models.Payment](repo), func(p models.Payment) bool {
		return p.OrderID == "ord-3"
	})
	require.NoError(t, err)
	assert.False(t, ok)
}
