package holds

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	holdRepo "github.com/m04kA/SMC-LifecycleService/internal/infra/storage/hold"
	"github.com/m04kA/SMC-LifecycleService/pkg/types"
)

// fakeHoldRepo потокобезопасный in-memory репозиторий удержаний
type fakeHoldRepo struct {
	mu    sync.Mutex
	holds map[string]*domain.Hold
}

func newFakeHoldRepo() *fakeHoldRepo {
	return &fakeHoldRepo{holds: make(map[string]*domain.Hold)}
}

func (r *fakeHoldRepo) Create(_ context.Context, h *domain.Hold) (*domain.Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *h
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.holds[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (r *fakeHoldRepo) GetByID(_ context.Context, id string) (*domain.Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.holds[id]
	if !ok {
		return nil, holdRepo.ErrHoldNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *fakeHoldRepo) ListBlockingOverlapping(_ context.Context, resourceID string, slot domain.Slot, now time.Time) ([]*domain.Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Hold
	for _, h := range r.holds {
		if h.ResourceID != resourceID {
			continue
		}
		if !h.IsBlocking(now) {
			continue
		}
		if h.Slot.Overlaps(slot) {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeHoldRepo) UpdateStatus(_ context.Context, id string, status domain.HoldStatus, ownerRef *string, releaseReason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.holds[id]
	if !ok {
		return holdRepo.ErrHoldNotFound
	}
	h.Status = status
	if ownerRef != nil {
		h.OwnerRef = *ownerRef
	}
	if releaseReason != nil {
		h.ReleaseReason = releaseReason
	}
	h.UpdatedAt = time.Now()
	return nil
}

func (r *fakeHoldRepo) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, h := range r.holds {
		if h.Status == domain.HoldStatusLive && !now.Before(h.ExpiresAt) {
			h.Status = domain.HoldStatusExpired
			count++
		}
	}
	return count, nil
}

// fakeTxManager сериализует вызовы fn глобальным мьютексом, имитируя
// поведение сериализуемых транзакций для конкурентных тестов
type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testSlot(start, end string) domain.Slot {
	return domain.Slot{
		Date:  time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		Start: types.TimeString(start),
		End:   types.TimeString(end),
	}
}

func newTestManager() (*Manager, *fakeHoldRepo, *fixedClock) {
	repo := newFakeHoldRepo()
	clock := &fixedClock{now: time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)}
	m := NewManager(repo, &fakeTxManager{}, noopLogger{}, 10*time.Minute)
	m.timeProvider = clock
	return m, repo, clock
}

func TestPlaceHold_Success(t *testing.T) {
	m, _, clock := newTestManager()

	hold, err := m.PlaceHold(context.Background(), "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, domain.HoldStatusLive, hold.Status)
	assert.Equal(t, "bk_1", hold.OwnerRef)
	assert.Equal(t, clock.Now().Add(10*time.Minute), hold.ExpiresAt)
	assert.NotEmpty(t, hold.ID)
}

func TestPlaceHold_InvalidSlot(t *testing.T) {
	m, _, _ := newTestManager()

	_, err := m.PlaceHold(context.Background(), "res-1", testSlot("11:00", "10:00"), "bk_1", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestPlaceHold_ConflictOnOverlap(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	_, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)

	// Пересекающийся слот того же ресурса
	_, err = m.PlaceHold(ctx, "res-1", testSlot("10:30", "11:30"), "bk_2", 10*time.Minute)
	assert.ErrorIs(t, err, ErrHoldConflict)

	// Соседний слот свободен
	_, err = m.PlaceHold(ctx, "res-1", testSlot("11:00", "12:00"), "bk_3", 10*time.Minute)
	assert.NoError(t, err)

	// Тот же слот на другом ресурсе свободен
	_, err = m.PlaceHold(ctx, "res-2", testSlot("10:00", "11:00"), "bk_4", 10*time.Minute)
	assert.NoError(t, err)
}

func TestPlaceHold_ExpiredHoldDoesNotBlock(t *testing.T) {
	m, _, clock := newTestManager()
	ctx := context.Background()

	_, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)

	_, err = m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_2", 10*time.Minute)
	assert.NoError(t, err)
}

func TestPlaceHold_ConvertedHoldBlocksForever(t *testing.T) {
	m, _, clock := newTestManager()
	ctx := context.Background()

	hold, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, m.Convert(ctx, hold.ID, "bk_1"))

	clock.Advance(24 * time.Hour)

	_, err = m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_2", 10*time.Minute)
	assert.ErrorIs(t, err, ErrHoldConflict)
}

func TestPlaceHold_ConcurrentSingleWinner(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	const n = 16
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_x", 10*time.Minute)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, ErrHoldConflict):
			conflicts++
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
}

func TestConvert_Success(t *testing.T) {
	m, repo, _ := newTestManager()
	ctx := context.Background()

	hold, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)

	require.NoError(t, m.Convert(ctx, hold.ID, "bk_1"))

	stored, err := repo.GetByID(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HoldStatusConverted, stored.Status)
}

func TestConvert_IdempotentForSameBooking(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	hold, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)

	require.NoError(t, m.Convert(ctx, hold.ID, "bk_1"))
	assert.NoError(t, m.Convert(ctx, hold.ID, "bk_1"))

	// Чужое бронирование конвертировать не может
	assert.ErrorIs(t, m.Convert(ctx, hold.ID, "bk_2"), ErrHoldOwnerMismatch)
}

func TestConvert_ExpiredHold(t *testing.T) {
	m, repo, clock := newTestManager()
	ctx := context.Background()

	hold, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)

	assert.ErrorIs(t, m.Convert(ctx, hold.ID, "bk_1"), ErrHoldExpired)

	// Истечение зафиксировано лениво
	stored, err := repo.GetByID(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HoldStatusExpired, stored.Status)
}

func TestConvert_OwnerMismatch(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	hold, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Convert(ctx, hold.ID, "bk_other"), ErrHoldOwnerMismatch)
}

func TestConvert_NotFound(t *testing.T) {
	m, _, _ := newTestManager()

	assert.ErrorIs(t, m.Convert(context.Background(), "hold_missing", "bk_1"), ErrHoldNotFound)
}

func TestRelease_LiveHold(t *testing.T) {
	m, repo, _ := newTestManager()
	ctx := context.Background()

	hold, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)

	require.NoError(t, m.Release(ctx, hold.ID, "customer changed mind"))

	stored, err := repo.GetByID(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HoldStatusReleased, stored.Status)
	require.NotNil(t, stored.ReleaseReason)
	assert.Equal(t, "customer changed mind", *stored.ReleaseReason)

	// Слот снова свободен
	_, err = m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_2", 10*time.Minute)
	assert.NoError(t, err)
}

func TestRelease_IdempotentForDeadHolds(t *testing.T) {
	m, _, clock := newTestManager()
	ctx := context.Background()

	hold, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)

	require.NoError(t, m.Release(ctx, hold.ID, "first"))
	assert.NoError(t, m.Release(ctx, hold.ID, "second"))

	// Истёкшее удержание тоже освобождается молча
	expired, err := m.PlaceHold(ctx, "res-1", testSlot("12:00", "13:00"), "bk_2", 10*time.Minute)
	require.NoError(t, err)
	clock.Advance(11 * time.Minute)
	_, err = m.SweepExpired(ctx)
	require.NoError(t, err)
	assert.NoError(t, m.Release(ctx, expired.ID, "late"))
}

func TestRelease_ConvertedHoldRejected(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	hold, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, m.Convert(ctx, hold.ID, "bk_1"))

	assert.ErrorIs(t, m.Release(ctx, hold.ID, "oops"), ErrHoldConverted)
}

func TestReleaseForBooking_ConvertedHoldByOwner(t *testing.T) {
	m, repo, _ := newTestManager()
	ctx := context.Background()

	hold, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, m.Convert(ctx, hold.ID, "bk_1"))

	// Отмена чужим бронированием запрещена
	assert.ErrorIs(t, m.ReleaseForBooking(ctx, hold.ID, "bk_2", "cancel"), ErrHoldOwnerMismatch)

	// Владелец освобождает слот при отмене
	require.NoError(t, m.ReleaseForBooking(ctx, hold.ID, "bk_1", "booking canceled"))

	stored, err := repo.GetByID(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HoldStatusReleased, stored.Status)

	_, err = m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_3", 10*time.Minute)
	assert.NoError(t, err)
}

func TestSweepExpired(t *testing.T) {
	m, repo, clock := newTestManager()
	ctx := context.Background()

	h1, err := m.PlaceHold(ctx, "res-1", testSlot("10:00", "11:00"), "bk_1", 10*time.Minute)
	require.NoError(t, err)
	h2, err := m.PlaceHold(ctx, "res-1", testSlot("12:00", "13:00"), "bk_2", 30*time.Minute)
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)

	count, err := m.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored1, _ := repo.GetByID(ctx, h1.ID)
	stored2, _ := repo.GetByID(ctx, h2.ID)
	assert.Equal(t, domain.HoldStatusExpired, stored1.Status)
	assert.Equal(t, domain.HoldStatusLive, stored2.Status)
}
