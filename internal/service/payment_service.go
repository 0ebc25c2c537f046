package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"groov/internal/domain"
	"groov/internal/models"
	"groov/internal/repository"
	"groov/internal/ws"
	"groov/pkg/kakaopay"

	"gorm.io/gorm"
)

// PaymentService drives the two-phase payment flow against the gateway:
// ready reserves a transaction and records it READY, approve confirms it and
// grants the download entitlement. Status only moves READY -> COMPLETED; a
// failed ready leaves no row, a failed approve leaves the row READY and the
// call retryable.
type PaymentService struct {
	db           *gorm.DB
	payments     *repository.PaymentRepository
	songs        *repository.SongRepository
	entitlements *repository.EntitlementRepository
	gateway      kakaopay.Client
	events       *ws.EventHub

	mu    sync.Mutex
	locks map[string]*tidLock
}

type tidLock struct {
	mu   sync.Mutex
	refs int
}

func NewPaymentService(
	db *gorm.DB,
	payments *repository.PaymentRepository,
	songs *repository.SongRepository,
	entitlements *repository.EntitlementRepository,
	gateway kakaopay.Client,
	events *ws.EventHub,
) *PaymentService {
	return &PaymentService{
		db:           db,
		payments:     payments,
		songs:        songs,
		entitlements: entitlements,
		gateway:      gateway,
		events:       events,
		locks:        make(map[string]*tidLock),
	}
}

type ReadyRequest struct {
	OrderID  string `json:"order_id" binding:"required"`
	ItemName string `json:"item_name" binding:"required"`
}

type ReadyResult struct {
	TID            string `json:"tid"`
	NextRedirectPC string `json:"next_redirect_pc_url"`
}

type ApproveRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	SongID  string `json:"song_id"`
	TID     string `json:"tid" binding:"required"`
	PGToken string `json:"pg_token" binding:"required"`
}

// Ready reserves the payment with the gateway and records it. The order id
// encodes the target song id as its second underscore-delimited segment; the
// parsed id is validated and stored on the row so approve never has to trust
// the order id again.
func (s *PaymentService) Ready(ctx context.Context, user *models.User, req ReadyRequest) (*ReadyResult, error) {
	songID, err := songIDFromOrderID(req.OrderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.songs.GetByID(songID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: song %s", domain.ErrNotFound, songID)
		}
		return nil, err
	}

	res, err := s.gateway.Ready(ctx, kakaopay.ReadyRequest{
		OrderID:  req.OrderID,
		UserID:   user.ID,
		ItemName: req.ItemName,
		Quantity: domain.TrackQuantity,
		Amount:   domain.TrackPrice,
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID: req.OrderID,
		UserID:  user.ID,
		SongID:  songID,
		TID:     res.TID,
		Status:  domain.PaymentStatusReady,
	}
	if err := s.payments.Create(payment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: order id or tid already exists", domain.ErrConflict)
		}
		return nil, err
	}
	return &ReadyResult{TID: res.TID, NextRedirectPC: res.NextRedirectPC}, nil
}

// Approve confirms the reservation and grants the entitlement. It is safe to
// retry: a payment already COMPLETED short-circuits to success without a
// second gateway call, and concurrent approves for the same tid are
// serialized so at most one in-flight confirmation exists at a time.
func (s *PaymentService) Approve(ctx context.Context, user *models.User, req ApproveRequest) error {
	unlock := s.lockTID(req.TID)
	defer unlock()

	payment, err := s.payments.GetByTID(req.TID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: payment %s", domain.ErrNotFound, req.TID)
		}
		return err
	}
	if payment.Status == domain.PaymentStatusCompleted {
		return nil
	}

	if _, err := s.gateway.Approve(ctx, kakaopay.ApproveRequest{
		TID:     payment.TID,
		OrderID: payment.OrderID,
		UserID:  user.ID,
		PGToken: req.PGToken,
	}); err != nil {
		return err
	}

	// Status flip and entitlement grant commit together: a crash between them
	// would otherwise strand a COMPLETED payment whose retry short-circuits
	// before ever granting the entitlement.
	var song *models.Song
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			Update("status", domain.PaymentStatusCompleted).Error; err != nil {
			return err
		}
		var found models.Song
		if err := tx.Where("id = ?", payment.SongID).First(&found).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: song %s", domain.ErrNotFound, payment.SongID)
			}
			return err
		}
		song = &found
		return s.entitlements.WithTx(tx).Grant(payment.UserID, payment.SongID)
	})
	if err != nil {
		return err
	}
	if s.events != nil {
		s.events.PurchaseCompleted(song.ID, song.Title)
	}
	return nil
}

// Status reports where an order stands, for clients polling after the
// gateway redirect. Another user's order reads as not found.
func (s *PaymentService) Status(user *models.User, orderID string) (string, error) {
	payment, err := s.payments.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
		}
		return "", err
	}
	if payment.UserID != user.ID {
		return "", fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return payment.Status, nil
}

// lockTID serializes approval per gateway transaction id.
func (s *PaymentService) lockTID(tid string) func() {
	s.mu.Lock()
	l, ok := s.locks[tid]
	if !ok {
		l = &tidLock{}
		s.locks[tid] = l
	}
	l.refs++
	s.mu.Unlock()
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, tid)
		}
		s.mu.Unlock()
	}
}

func songIDFromOrderID(orderID string) (string, error) {
	parts := strings.Split(orderID, "_")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("%w: order id must encode a song id", domain.ErrInvalid)
	}
	return parts[1], nil
}
