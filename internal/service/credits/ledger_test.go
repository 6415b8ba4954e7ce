package credits

import (
	"ai-nexus/internal/apperrors"
	"ai-nexus/internal/repository/db"
	"ai-nexus/internal/telemetry"
	"ai-nexus/internal/testutil"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const email = "user@example.com"

func TestTryDebit_DecrementsUntilZero(t *testing.T) {
	store := testutil.NewMemoryStoreWithUser(email, 2)
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := ledger.TryDebit(ctx, email)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := ledger.TryDebit(ctx, email)
	require.NoError(t, err, "an empty balance is not an error")
	assert.False(t, ok)

	balance, err := ledger.Balance(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestTryDebit_ConcurrentRequestsSingleCredit(t *testing.T) {
	store := testutil.NewMemoryStoreWithUser(email, 1)
	ledger := NewLedger(store, telemetry.NewMetrics(prometheus.NewRegistry()))

	var successes int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ledger.TryDebit(context.Background(), email)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
	balance, _ := ledger.Balance(context.Background(), email)
	assert.Equal(t, 0, balance)
}

func TestTryDebit_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	mockDB := &testutil.MockDatabase{
		DebitCreditFunc: func(ctx context.Context, email string) (bool, error) {
			return false, storeErr
		},
	}

	ok, err := NewLedger(mockDB, nil).TryDebit(context.Background(), email)
	assert.False(t, ok)
	assert.ErrorIs(t, err, storeErr)
}

func TestTryDebit_UnknownUser(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		DebitCreditFunc: func(ctx context.Context, email string) (bool, error) {
			return false, db.ErrNotFound
		},
	}

	_, err := NewLedger(mockDB, nil).TryDebit(context.Background(), email)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCredit(t *testing.T) {
	store := testutil.NewMemoryStoreWithUser(email, 0)
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, email, 500))
	require.NoError(t, ledger.Credit(ctx, email, 0))
	require.NoError(t, ledger.Refund(ctx, email))

	balance, err := ledger.Balance(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 501, balance)

	err = ledger.Credit(ctx, email, -1)
	assert.True(t, apperrors.IsInvalidInput(err))

	err = ledger.Credit(ctx, "ghost@example.com", 1)
	assert.True(t, apperrors.IsNotFound(err))
}
