package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fortuna/config"
	"fortuna/internal/domain"
	"fortuna/internal/models"
	"fortuna/internal/repository"
	"fortuna/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PurchaseService sells point packages through the payment provider.
type PurchaseService struct {
	db       *gorm.DB
	payments *repository.PaymentRepository
	events   *repository.WebhookEventRepository
	points   *repository.PointRepository
	provider payment.Provider
	pub      Publisher
	cfg      config.PaymentConfig
	log      *zap.Logger
}

func NewPurchaseService(
	db *gorm.DB,
	payments *repository.PaymentRepository,
	events *repository.WebhookEventRepository,
	points *repository.PointRepository,
	provider payment.Provider,
	pub Publisher,
	cfg config.PaymentConfig,
	log *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		db:       db,
		payments: payments,
		events:   events,
		points:   points,
		provider: provider,
		pub:      orNop(pub),
		cfg:      cfg,
		log:      log.Named("purchase"),
	}
}

func (s *PurchaseService) Packages() []config.PointPackage {
	return s.cfg.Packages
}

// Checkout opens a checkout session. Repeating a request with the same
// idempotency key returns the first session.
func (s *PurchaseService) Checkout(ctx context.Context, userID, packageID, idempotencyKey string) (*models.Payment, error) {
	pkg, ok := s.cfg.Package(packageID)
	if !ok {
		return nil, domain.Validationf("unknown package %q", packageID)
	}
	if idempotencyKey != "" {
		existing, err := s.payments.GetByIdempotencyKey(ctx, userID, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	} else {
		idempotencyKey = uuid.NewString()
	}

	session, err := s.provider.CreateCheckout(ctx, payment.CheckoutRequest{
		UserID:         userID,
		Amount:         pkg.Amount,
		Currency:       pkg.Currency,
		Description:    pkg.Name,
		IdempotencyKey: idempotencyKey,
		SuccessURL:     s.cfg.SuccessURL,
		CancelURL:      s.cfg.CancelURL,
		Metadata: map[string]string{
			payment.MetaUserID:    userID,
			payment.MetaPackageID: pkg.ID,
			payment.MetaPoints:    strconv.FormatInt(pkg.Points, 10),
		},
	})
	if err != nil {
		s.log.Error("checkout session failed", zap.String("user_id", userID), zap.String("package_id", pkg.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	p := &models.Payment{
		UserID:         userID,
		PackageID:      pkg.ID,
		Points:         pkg.Points,
		Amount:         pkg.Amount,
		Currency:       pkg.Currency,
		Provider:       s.provider.Name(),
		ProviderRef:    session.Reference,
		Status:         domain.PaymentStatusPending,
		IdempotencyKey: idempotencyKey,
		CheckoutURL:    session.CheckoutURL,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}
	return p, nil
}

// HandleWebhook applies a verified provider event exactly once. Points are
// credited from the stored payment row, never from the event payload.
func (s *PurchaseService) HandleWebhook(ctx context.Context, body []byte, header http.Header) error {
	evt, err := s.provider.ParseWebhook(body, header)
	if err != nil {
		return err
	}

	var credited *models.Payment
	var balance int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := &models.WebhookEvent{
			Provider:        s.provider.Name(),
			ProviderEventID: evt.ID,
			EventType:       evt.Type,
			Payload:         datatypes.JSON(body),
		}
		inserted, err := s.events.Record(ctx, tx, record)
		if err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}
		if !inserted {
			s.log.Info("duplicate webhook event ignored", zap.String("event_id", evt.ID))
			return nil
		}

		switch evt.Kind {
		case payment.EventCheckoutCompleted:
			p, err := s.payments.GetByProviderRef(ctx, tx, evt.Reference)
			if errors.Is(err, domain.ErrNotFound) {
				s.log.Warn("webhook for unknown checkout", zap.String("reference", evt.Reference))
				break
			}
			if err != nil {
				return err
			}
			if uid := evt.Metadata[payment.MetaUserID]; uid != "" && uid != p.UserID {
				s.log.Warn("webhook metadata user mismatch", zap.String("reference", p.ProviderRef))
			}
			now := time.Now()
			ok, err := s.payments.MarkCompleted(ctx, tx, p.ID, now)
			if err != nil {
				return fmt.Errorf("complete payment: %w", err)
			}
			if !ok {
				break
			}
			balance, err = s.points.Apply(ctx, tx, repository.LedgerEntry{
				UserID:        p.UserID,
				Amount:        p.Points,
				Type:          domain.PointTxTypePurchase,
				ReferenceType: domain.ReferenceTypePayment,
				ReferenceID:   p.ProviderRef,
				Description:   fmt.Sprintf("Purchase: %d points", p.Points),
			})
			if err != nil {
				return fmt.Errorf("credit points: %w", err)
			}
			credited = p
		case payment.EventCheckoutExpired:
			p, err := s.payments.GetByProviderRef(ctx, tx, evt.Reference)
			if err == nil {
				if _, err := s.payments.MarkExpired(ctx, tx, p.ID); err != nil {
					return fmt.Errorf("expire payment: %w", err)
				}
			} else if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		return s.events.MarkProcessed(ctx, tx, record.ID, time.Now())
	})
	if err != nil {
		return err
	}
	if credited != nil {
		s.log.Info("points purchased",
			zap.String("user_id", credited.UserID), zap.Int64("points", credited.Points), zap.String("reference", credited.ProviderRef))
		s.pub.PublishToUser(credited.UserID, EventBalance, map[string]int64{"balance": balance})
	}
	return nil
}
