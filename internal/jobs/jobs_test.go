package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/logger"
	"spadesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	ids []string
	err error
}

func (f *fakeLister) ListIDs(ctx context.Context) ([]string, error) {
	return f.ids, f.err
}

type fakeReconciler struct {
	results map[string]*model.Reconciliation
	errs    map[string]error
	calls   []string
	onCall  func()
}

func (f *fakeReconciler) Reconcile(ctx context.Context, customerID string) (*model.Reconciliation, error) {
	f.calls = append(f.calls, customerID)
	if f.onCall != nil {
		f.onCall()
	}
	if err, ok := f.errs[customerID]; ok {
		return nil, err
	}
	return f.results[customerID], nil
}

func TestReconcileSweep_Run(t *testing.T) {
	lister := &fakeLister{ids: []string{"a", "b", "c", "d"}}
	rec := &fakeReconciler{
		results: map[string]*model.Reconciliation{
			"a": {CustomerID: "a", Expected: 500, Actual: 500, Consistent: true},
			"b": {CustomerID: "b", Expected: 500, Actual: 300, Consistent: false},
		},
		errs: map[string]error{
			"c": apperrors.NotFoundWithID("customer", "c"),
			"d": errors.New("mongo unavailable"),
		},
	}

	sweep := NewReconcileSweep(lister, rec, logger.Nop(), nil)
	result, err := sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, rec.calls)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Mismatched)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, "b", result.Mismatches[0].CustomerID)
}

func TestReconcileSweep_ListError(t *testing.T) {
	sweep := NewReconcileSweep(&fakeLister{err: errors.New("boom")}, &fakeReconciler{}, logger.Nop(), nil)

	_, err := sweep.Run(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestReconcileSweep_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &fakeReconciler{
		results: map[string]*model.Reconciliation{
			"a": {CustomerID: "a", Consistent: true},
			"b": {CustomerID: "b", Consistent: true},
		},
		onCall: cancel,
	}
	sweep := NewReconcileSweep(&fakeLister{ids: []string{"a", "b", "c"}}, rec, logger.Nop(), nil)

	result, err := sweep.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, rec.calls)
	assert.Equal(t, 1, result.Checked)
}

func TestScheduler_Add(t *testing.T) {
	s := NewScheduler(time.UTC, logger.Nop())
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.Add("nightly", "0 3 * * *", noop))
	assert.Error(t, s.Add("broken", "every night", noop))
	assert.Equal(t, 1, s.Len())
}

func TestScheduler_StopCancelsJobs(t *testing.T) {
	s := NewScheduler(nil, logger.Nop())
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.ErrorIs(t, s.ctx.Err(), context.Canceled)
}
