// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/store"
	"github.com/aberthet/chantier-sync/models"
)

// ─────────────────────────────────────────────
// Mocks
// ─────────────────────────────────────────────

type mockServerAdapter struct {
	mu    sync.Mutex
	token string

	registerFn func(ctx context.Context, user models.User) (models.User, error)
	loginFn    func(ctx context.Context, user models.User) (models.User, error)
	pushFn     func(ctx context.Context, req models.PushRequest) (models.PushResult, error)
	pullFn     func(ctx context.Context, since int64, deviceID string) (models.PullResponse, error)
	resolveFn  func(ctx context.Context, req models.ResolveRequest) (models.EntityRecord, error)
	versionFn  func(ctx context.Context) (string, error)
}

func (m *mockServerAdapter) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *mockServerAdapter) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *mockServerAdapter) Register(ctx context.Context, user models.User) (models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, user)
	}
	return user, nil
}

func (m *mockServerAdapter) Login(ctx context.Context, user models.User) (models.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, user)
	}
	return user, nil
}

func (m *mockServerAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
	if m.pushFn != nil {
		return m.pushFn(ctx, req)
	}
	return models.PushResult{}, nil
}

func (m *mockServerAdapter) Pull(ctx context.Context, since int64, deviceID string) (models.PullResponse, error) {
	if m.pullFn != nil {
		return m.pullFn(ctx, since, deviceID)
	}
	return models.PullResponse{}, nil
}

func (m *mockServerAdapter) Resolve(ctx context.Context, req models.ResolveRequest) (models.EntityRecord, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, req)
	}
	return models.EntityRecord{}, nil
}

func (m *mockServerAdapter) ServerVersion(ctx context.Context) (string, error) {
	if m.versionFn != nil {
		return m.versionFn(ctx)
	}
	return "test", nil
}

type mockMeta struct {
	mu         sync.Mutex
	deviceID   string
	checkpoint int64
	resets     int
}

func (m *mockMeta) DeviceID(ctx context.Context, kind models.ClientKind) (string, error) {
	if m.deviceID == "" {
		return "device-test", nil
	}
	return m.deviceID, nil
}

func (m *mockMeta) Checkpoint(ctx context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpoint, nil
}

func (m *mockMeta) SetCheckpoint(ctx context.Context, userID int64, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoint = value
	return nil
}

func (m *mockMeta) ResetCheckpoint(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoint = 0
	m.resets++
	return nil
}

type mockReconciler struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, userID int64, ops []models.Operation) (ApplyReport, error)
	calls [][]models.Operation
}

func (m *mockReconciler) Reconcile(ctx context.Context, userID int64, ops []models.Operation) (ApplyReport, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ops)
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(ctx, userID, ops)
	}
	return ApplyReport{Applied: len(ops)}, nil
}

type syncFixture struct {
	adapter    *mockServerAdapter
	oplog      *mockOperationLog
	meta       *mockMeta
	reconciler *mockReconciler
	service    ClientSyncService
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	f := &syncFixture{
		adapter:    &mockServerAdapter{},
		oplog:      &mockOperationLog{},
		meta:       &mockMeta{},
		reconciler: &mockReconciler{},
	}
	stores := &store.ClientStorages{
		OperationLog: f.oplog,
		Replica:      &mockReplica{},
		Meta:         f.meta,
	}
	f.service = NewClientSyncService(
		stores,
		f.adapter,
		f.reconciler,
		config.ClientSync{Interval: time.Minute, Retention: 30 * 24 * time.Hour},
		models.ClientDesktop,
		logger.Nop(),
	)
	return f
}

func pendingOps(ids ...string) []models.Operation {
	ops := make([]models.Operation, 0, len(ids))
	for i, id := range ids {
		ops = append(ops, models.Operation{
			ID:        id,
			Type:      models.OperationUpdate,
			Entity:    models.EntityProject,
			EntityID:  "p" + id,
			Timestamp: int64(1700000000000 + i),
		})
	}
	return ops
}

// ─────────────────────────────────────────────
// Push
// ─────────────────────────────────────────────

func TestClientPush_NothingPendingIsNoOp(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.pushFn = func(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
		t.Fatal("push must not reach the server when nothing is pending")
		return models.PushResult{}, nil
	}

	result, err := f.service.Push(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, result.Success)
}

func TestClientPush_MarksAcknowledgedSubsetSynced(t *testing.T) {
	f := newSyncFixture(t)
	f.oplog.pendingFn = func(ctx context.Context, userID int64) ([]models.Operation, error) {
		return pendingOps("op-1", "op-2", "op-3"), nil
	}
	f.adapter.pushFn = func(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
		assert.Equal(t, "device-test", req.DeviceID)
		require.Len(t, req.Operations, 3)
		return models.PushResult{
			Success:   []string{"pop-1"},
			Conflicts: []models.OperationConflict{{ID: "pop-2", Entity: models.EntityProject}},
			Failed:    []models.OperationError{{ID: "op-3", Error: "invalid timestamp"}},
		}, nil
	}

	var marked []string
	f.oplog.markSyncedFn = func(ctx context.Context, ids []string, at time.Time) error {
		marked = ids
		return nil
	}

	result, err := f.service.Push(context.Background(), 1)

	require.NoError(t, err)
	// applied and conflicted operations are both acknowledged; only the
	// failed one stays pending for the next cycle
	assert.ElementsMatch(t, []string{"op-1", "op-2"}, marked)
	assert.Len(t, result.Conflicts, 1)
}

func TestClientPush_AdapterErrorIsMapped(t *testing.T) {
	f := newSyncFixture(t)
	f.oplog.pendingFn = func(ctx context.Context, userID int64) ([]models.Operation, error) {
		return pendingOps("op-1"), nil
	}
	f.adapter.pushFn = func(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
		return models.PushResult{}, errors.New("connection refused")
	}

	_, err := f.service.Push(context.Background(), 1)

	assert.Error(t, err)
}

// ─────────────────────────────────────────────
// Pull
// ─────────────────────────────────────────────

func TestClientPull_UsesStoredCheckpoint(t *testing.T) {
	f := newSyncFixture(t)
	f.meta.checkpoint = 1700000000000

	var gotSince int64
	var gotDevice string
	f.adapter.pullFn = func(ctx context.Context, since int64, deviceID string) (models.PullResponse, error) {
		gotSince, gotDevice = since, deviceID
		return models.PullResponse{ServerTime: 1700000001000}, nil
	}

	_, err := f.service.Pull(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), gotSince)
	assert.Equal(t, "device-test", gotDevice)
}

func TestClientPull_AdvancesCheckpointEvenWhenEmpty(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.pullFn = func(ctx context.Context, since int64, deviceID string) (models.PullResponse, error) {
		return models.PullResponse{ServerTime: 1700000002000}, nil
	}

	report, err := f.service.Pull(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, ApplyReport{}, report)
	assert.Equal(t, int64(1700000002000), f.meta.checkpoint)
}

func TestClientPull_ReconcilesBeforeAdvancing(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.pullFn = func(ctx context.Context, since int64, deviceID string) (models.PullResponse, error) {
		return models.PullResponse{
			Operations: []models.Operation{{ID: "op-9", Type: models.OperationCreate, Entity: models.EntityPhoto, EntityID: "ph1", Timestamp: 5}},
			ServerTime: 1700000003000,
		}, nil
	}

	report, err := f.service.Pull(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Applied)
	require.Len(t, f.reconciler.calls, 1)
	assert.Equal(t, "op-9", f.reconciler.calls[0][0].ID)
	assert.Equal(t, int64(1700000003000), f.meta.checkpoint)
}

func TestClientPull_ReconcileFailureKeepsCheckpoint(t *testing.T) {
	f := newSyncFixture(t)
	f.meta.checkpoint = 42
	f.adapter.pullFn = func(ctx context.Context, since int64, deviceID string) (models.PullResponse, error) {
		return models.PullResponse{
			Operations: []models.Operation{{ID: "op-9", Type: models.OperationCreate, Entity: models.EntityPhoto, EntityID: "ph1"}},
			ServerTime: 1700000003000,
		}, nil
	}
	f.reconciler.fn = func(ctx context.Context, userID int64, ops []models.Operation) (ApplyReport, error) {
		return ApplyReport{}, errors.New("transaction failed")
	}

	_, err := f.service.Pull(context.Background(), 1)

	assert.Error(t, err)
	assert.Equal(t, int64(42), f.meta.checkpoint, "a failed reconcile must not burn the window")
}

// ─────────────────────────────────────────────
// Sync cycle
// ─────────────────────────────────────────────

func TestSync_RunsPushPullPurgeAndReportsStatus(t *testing.T) {
	f := newSyncFixture(t)

	var order []string
	f.oplog.pendingFn = func(ctx context.Context, userID int64) ([]models.Operation, error) {
		return pendingOps("op-1"), nil
	}
	f.adapter.pushFn = func(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
		order = append(order, "push")
		return models.PushResult{Success: []string{"pop-1"}}, nil
	}
	f.adapter.pullFn = func(ctx context.Context, since int64, deviceID string) (models.PullResponse, error) {
		order = append(order, "pull")
		return models.PullResponse{ServerTime: 1700000004000}, nil
	}
	f.oplog.purgeFn = func(ctx context.Context, userID int64, horizon time.Time) (int64, error) {
		order = append(order, "purge")
		assert.InDelta(t, time.Now().Add(-30*24*time.Hour).Unix(), horizon.Unix(), 5)
		return 2, nil
	}

	var statuses []models.SyncStatus
	f.service.OnStatusChange(func(state models.SyncState) {
		statuses = append(statuses, state.Status)
	})

	err := f.service.Sync(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"push", "pull", "purge"}, order)
	assert.Equal(t, []models.SyncStatus{models.StatusSyncing, models.StatusPulling, models.StatusSynced}, statuses)

	state := f.service.State()
	assert.Equal(t, models.StatusSynced, state.Status)
	require.NotNil(t, state.LastSyncAt)
}

func TestSync_PushFailureSetsErrorStatus(t *testing.T) {
	f := newSyncFixture(t)
	f.oplog.pendingFn = func(ctx context.Context, userID int64) ([]models.Operation, error) {
		return pendingOps("op-1"), nil
	}
	f.adapter.pushFn = func(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
		return models.PushResult{}, errors.New("server unreachable")
	}

	err := f.service.Sync(context.Background(), 1)

	require.Error(t, err)
	state := f.service.State()
	assert.Equal(t, models.StatusError, state.Status)
	assert.NotEmpty(t, state.LastError)
}

func TestSync_ReentrantTriggerReturnsImmediately(t *testing.T) {
	f := newSyncFixture(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var pushCalls int
	var mu sync.Mutex

	f.oplog.pendingFn = func(ctx context.Context, userID int64) ([]models.Operation, error) {
		return pendingOps("op-1"), nil
	}
	f.adapter.pushFn = func(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
		mu.Lock()
		pushCalls++
		mu.Unlock()
		close(entered)
		<-release
		return models.PushResult{}, nil
	}

	done := make(chan error)
	go func() { done <- f.service.Sync(context.Background(), 1) }()
	<-entered

	// second trigger while the first cycle holds the lock
	require.NoError(t, f.service.Sync(context.Background(), 1))

	close(release)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, pushCalls)
}

func TestSync_SuccessfulCycleClearsLastError(t *testing.T) {
	f := newSyncFixture(t)
	f.oplog.pendingFn = func(ctx context.Context, userID int64) ([]models.Operation, error) {
		return pendingOps("op-1"), nil
	}

	failing := true
	f.adapter.pushFn = func(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
		if failing {
			return models.PushResult{}, errors.New("flaky network")
		}
		return models.PushResult{Success: []string{"pop-1"}}, nil
	}

	require.Error(t, f.service.Sync(context.Background(), 1))
	assert.NotEmpty(t, f.service.State().LastError)

	failing = false
	require.NoError(t, f.service.Sync(context.Background(), 1))
	assert.Empty(t, f.service.State().LastError)
}

// ─────────────────────────────────────────────
// Recovery operations
// ─────────────────────────────────────────────

func TestClearPending_DropsQueue(t *testing.T) {
	f := newSyncFixture(t)
	f.oplog.clearFn = func(ctx context.Context, userID int64) (int64, error) {
		return 4, nil
	}

	dropped, err := f.service.ClearPending(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(4), dropped)
}

func TestForceFullResync_ResetsCheckpointThenPullsFromZero(t *testing.T) {
	f := newSyncFixture(t)
	f.meta.checkpoint = 1700000000000

	var gotSince int64 = -1
	f.adapter.pullFn = func(ctx context.Context, since int64, deviceID string) (models.PullResponse, error) {
		gotSince = since
		return models.PullResponse{ServerTime: 1700000005000}, nil
	}

	err := f.service.ForceFullResync(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 1, f.meta.resets)
	assert.Equal(t, int64(0), gotSince, "the pull after a reset must start from zero")
	assert.Equal(t, int64(1700000005000), f.meta.checkpoint)
}

// ─────────────────────────────────────────────
// Realtime
// ─────────────────────────────────────────────

func TestApplyRemote_FeedsReconciler(t *testing.T) {
	f := newSyncFixture(t)

	op := models.Operation{ID: "op-rt", Type: models.OperationUpdate, Entity: models.EntityMetre, EntityID: "m1", Timestamp: 9}
	err := f.service.ApplyRemote(context.Background(), 1, op)

	require.NoError(t, err)
	require.Len(t, f.reconciler.calls, 1)
	assert.Equal(t, "op-rt", f.reconciler.calls[0][0].ID)
}

func TestApplyRemote_FailedApplyIsAnError(t *testing.T) {
	f := newSyncFixture(t)
	f.reconciler.fn = func(ctx context.Context, userID int64, ops []models.Operation) (ApplyReport, error) {
		return ApplyReport{Failed: 1}, nil
	}

	err := f.service.ApplyRemote(context.Background(), 1, models.Operation{ID: "op-rt", Type: models.OperationUpdate})

	assert.Error(t, err)
}

func TestSetRealtimeConnected_FlipsIdleStatus(t *testing.T) {
	f := newSyncFixture(t)

	require.NoError(t, f.service.Sync(context.Background(), 1))
	assert.Equal(t, models.StatusSynced, f.service.State().Status)

	f.service.SetRealtimeConnected(true)
	assert.Equal(t, models.StatusRealtime, f.service.State().Status)

	f.service.SetRealtimeConnected(false)
	assert.Equal(t, models.StatusSynced, f.service.State().Status)
}
