package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"groov/internal/domain"
	"groov/internal/models"
	"groov/internal/repository"
	"groov/pkg/kakaopay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeGateway stands in for the KakaoPay client; call counts are tracked so
// tests can assert how often the external system was hit.
type fakeGateway struct {
	readyFn      func(ctx context.Context, req kakaopay.ReadyRequest) (*kakaopay.ReadyResponse, error)
	approveFn    func(ctx context.Context, req kakaopay.ApproveRequest) (*kakaopay.ApproveResponse, error)
	readyCalls   int32
	approveCalls int32
}

func (f *fakeGateway) Ready(ctx context.Context, req kakaopay.ReadyRequest) (*kakaopay.ReadyResponse, error) {
	atomic.AddInt32(&f.readyCalls, 1)
	if f.readyFn != nil {
		return f.readyFn(ctx, req)
	}
	return &kakaopay.ReadyResponse{TID: "T1", NextRedirectPC: "http://pg/redirect"}, nil
}

func (f *fakeGateway) Approve(ctx context.Context, req kakaopay.ApproveRequest) (*kakaopay.ApproveResponse, error) {
	atomic.AddInt32(&f.approveCalls, 1)
	if f.approveFn != nil {
		return f.approveFn(ctx, req)
	}
	return &kakaopay.ApproveResponse{AID: "A1", TID: req.TID}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Song{}, &models.Payment{}))
	return db
}

func newPaymentFixture(t *testing.T, gw kakaopay.Client) (*PaymentService, *gorm.DB, *models.User) {
	t.Helper()
	db := newTestDB(t)
	user := &models.User{ID: "u1", Name: "User One", Image: "/u1.png", Email: "u1@example.com"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.Song{
		ID: "42", Title: "Song 42", Image: "/img.png", FileURL: "/media/audio/song42.mp3",
		Duration: 180, Description: "User One", OwnerID: "u1",
	}).Error)

	svc := NewPaymentService(
		db,
		repository.NewPaymentRepository(db),
		repository.NewSongRepository(db),
		repository.NewEntitlementRepository(db),
		gw,
		nil,
	)
	return svc, db, user
}

func entitlementCount(t *testing.T, db *gorm.DB, userID, songID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Table("user_downloads").
		Where("user_id = ? AND song_id = ?", userID, songID).Count(&count).Error)
	return count
}

func TestReadyCreatesPayment(t *testing.T) {
	gw := &fakeGateway{}
	svc, db, user := newPaymentFixture(t, gw)

	res, err := svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_42_abc", ItemName: "Song 42"})
	require.NoError(t, err)
	assert.Equal(t, "T1", res.TID)
	assert.Equal(t, "http://pg/redirect", res.NextRedirectPC)

	var p models.Payment
	require.NoError(t, db.Where("tid = ?", "T1").First(&p).Error)
	assert.Equal(t, "order_42_abc", p.OrderID)
	assert.Equal(t, "42", p.SongID)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, domain.PaymentStatusReady, p.Status)
}

func TestReadyRejectsMalformedOrderID(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, user := newPaymentFixture(t, gw)

	_, err := svc.Ready(context.Background(), user, ReadyRequest{OrderID: "noseg", ItemName: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalid)
	assert.Zero(t, atomic.LoadInt32(&gw.readyCalls))
}

func TestReadyUnknownSong(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, user := newPaymentFixture(t, gw)

	_, err := svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_999_abc", ItemName: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, atomic.LoadInt32(&gw.readyCalls))
}

func TestReadyGatewayFailureLeavesNoRow(t *testing.T) {
	gw := &fakeGateway{
		readyFn: func(ctx context.Context, req kakaopay.ReadyRequest) (*kakaopay.ReadyResponse, error) {
			return nil, &domain.GatewayError{StatusCode: http.StatusBadRequest, Body: []byte(`{"error_code":-1}`)}
		},
	}
	svc, db, user := newPaymentFixture(t, gw)

	_, err := svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_42_abc", ItemName: "Song 42"})
	var gwErr *domain.GatewayError
	require.True(t, errors.As(err, &gwErr))

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReadyDuplicateOrderIDConflicts(t *testing.T) {
	var n int32
	gw := &fakeGateway{
		readyFn: func(ctx context.Context, req kakaopay.ReadyRequest) (*kakaopay.ReadyResponse, error) {
			return &kakaopay.ReadyResponse{
				TID:            fmt.Sprintf("T%d", atomic.AddInt32(&n, 1)),
				NextRedirectPC: "http://pg/redirect",
			}, nil
		},
	}
	svc, _, user := newPaymentFixture(t, gw)

	_, err := svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_42_abc", ItemName: "Song 42"})
	require.NoError(t, err)

	_, err = svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_42_abc", ItemName: "Song 42"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestApproveCompletesAndGrants(t *testing.T) {
	gw := &fakeGateway{}
	svc, db, user := newPaymentFixture(t, gw)

	_, err := svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_42_abc", ItemName: "Song 42"})
	require.NoError(t, err)

	err = svc.Approve(context.Background(), user, ApproveRequest{
		OrderID: "order_42_abc", SongID: "42", TID: "T1", PGToken: "X",
	})
	require.NoError(t, err)

	var p models.Payment
	require.NoError(t, db.Where("tid = ?", "T1").First(&p).Error)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)
	assert.Equal(t, int64(1), entitlementCount(t, db, "u1", "42"))
}

func TestApproveIsIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	svc, db, user := newPaymentFixture(t, gw)

	_, err := svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_42_abc", ItemName: "Song 42"})
	require.NoError(t, err)

	req := ApproveRequest{OrderID: "order_42_abc", SongID: "42", TID: "T1", PGToken: "X"}
	require.NoError(t, svc.Approve(context.Background(), user, req))
	require.NoError(t, svc.Approve(context.Background(), user, req))

	// the second approve must not hit the gateway or duplicate the grant
	assert.Equal(t, int32(1), atomic.LoadInt32(&gw.approveCalls))
	assert.Equal(t, int64(1), entitlementCount(t, db, "u1", "42"))
}

func TestApproveUnknownTID(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, user := newPaymentFixture(t, gw)

	err := svc.Approve(context.Background(), user, ApproveRequest{
		OrderID: "order_42_abc", TID: "nope", PGToken: "X",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, atomic.LoadInt32(&gw.approveCalls))
}

func TestApproveGatewayFailureLeavesReady(t *testing.T) {
	gw := &fakeGateway{
		approveFn: func(ctx context.Context, req kakaopay.ApproveRequest) (*kakaopay.ApproveResponse, error) {
			return nil, &domain.GatewayError{StatusCode: http.StatusBadRequest, Body: []byte(`{"error_code":-780}`)}
		},
	}
	svc, db, user := newPaymentFixture(t, gw)

	_, err := svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_42_abc", ItemName: "Song 42"})
	require.NoError(t, err)

	err = svc.Approve(context.Background(), user, ApproveRequest{
		OrderID: "order_42_abc", TID: "T1", PGToken: "X",
	})
	var gwErr *domain.GatewayError
	require.True(t, errors.As(err, &gwErr))

	// row stays READY so the client can retry
	var p models.Payment
	require.NoError(t, db.Where("tid = ?", "T1").First(&p).Error)
	assert.Equal(t, domain.PaymentStatusReady, p.Status)
	assert.Zero(t, entitlementCount(t, db, "u1", "42"))
}

func TestConcurrentApproveSingleConfirmation(t *testing.T) {
	gw := &fakeGateway{}
	svc, db, user := newPaymentFixture(t, gw)

	_, err := svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_42_abc", ItemName: "Song 42"})
	require.NoError(t, err)

	req := ApproveRequest{OrderID: "order_42_abc", SongID: "42", TID: "T1", PGToken: "X"}
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Approve(context.Background(), user, req)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&gw.approveCalls))
	assert.Equal(t, int64(1), entitlementCount(t, db, "u1", "42"))
}

func TestStatusFollowsPaymentLifecycle(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, user := newPaymentFixture(t, gw)

	_, err := svc.Status(user, "order_42_abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_42_abc", ItemName: "Song 42"})
	require.NoError(t, err)

	status, err := svc.Status(user, "order_42_abc")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusReady, status)

	require.NoError(t, svc.Approve(context.Background(), user, ApproveRequest{
		OrderID: "order_42_abc", TID: "T1", PGToken: "X",
	}))

	status, err = svc.Status(user, "order_42_abc")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, status)
}

func TestStatusHidesOtherUsersOrders(t *testing.T) {
	gw := &fakeGateway{}
	svc, db, user := newPaymentFixture(t, gw)

	_, err := svc.Ready(context.Background(), user, ReadyRequest{OrderID: "order_42_abc", ItemName: "Song 42"})
	require.NoError(t, err)

	other := &models.User{ID: "u2", Name: "User Two", Image: "/u2.png", Email: "u2@example.com"}
	require.NoError(t, db.Create(other).Error)

	_, err = svc.Status(other, "order_42_abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
