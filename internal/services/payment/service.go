// Package payment sells credits, extras and ad slots through a hosted checkout and
// applies them when the provider confirms payment.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/events"
	"pronat/internal/models"
	"pronat/internal/repositories"
	"pronat/internal/services/ads"
	"pronat/internal/services/credit"
	"pronat/internal/services/extras"
	"pronat/internal/services/settings"
	"pronat/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CheckoutRequest struct {
	Type       string `json:"type" validate:"required,oneof=credits extra ad"`
	PackageID  uint   `json:"package_id" validate:"required"`
	PropertyID *uint  `json:"property_id,omitempty"`
	AdID       *uint  `json:"ad_id,omitempty"`
}

// CheckoutResult carries either a provider URL or, in testing mode, the
// already activated listing or ad.
type CheckoutResult struct {
	CheckoutURL string           `json:"checkout_url,omitempty"`
	SessionID   string           `json:"session_id,omitempty"`
	Activated   bool             `json:"activated"`
	Property    *models.Property `json:"property,omitempty"`
	Ad          *models.Ad       `json:"ad,omitempty"`
}

// WebhookResult reports what a delivery did.
type WebhookResult struct {
	Processed bool
	Ignored   bool
}

type Service interface {
	CreateCheckout(ctx context.Context, userID uint, req CheckoutRequest) (*CheckoutResult, error)

	// HandleWebhook verifies and applies a provider event. A repeated delivery of
	// the same payment changes nothing and returns ErrDuplicatePayment.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

type Deps struct {
	Store      repositories.Store
	Provider   Provider
	Settings   settings.Service
	Credits    credit.Service
	Extras     extras.Service
	Ads        ads.Service
	Publisher  events.Publisher
	Log        *zap.Logger
	SuccessURL string
	CancelURL  string
}

type service struct {
	Deps
	now func() time.Time
}

func NewService(d Deps) Service {
	if d.Publisher == nil {
		d.Publisher = events.Noop{}
	}
	return &service{Deps: d, now: time.Now}
}

func (s *service) CreateCheckout(ctx context.Context, userID uint, req CheckoutRequest) (*CheckoutResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if err := s.checkBuyer(ctx, userID); err != nil {
		return nil, err
	}

	var (
		meta PurchaseMetadata
		item LineItem
		err  error
	)
	switch req.Type {
	case PurchaseCredits:
		meta, item, err = s.creditsPurchase(ctx, userID, req)
	case PurchaseExtra:
		meta, item, err = s.extraPurchase(ctx, userID, req)
	case PurchaseAd:
		meta, item, err = s.adPurchase(ctx, userID, req)
	}
	if err != nil {
		return nil, err
	}

	if req.Type != PurchaseCredits {
		testing, err := s.Settings.TestingMode(ctx)
		if err != nil {
			return nil, err
		}
		if testing {
			return s.activateFree(ctx, meta)
		}
	}

	sess, err := s.Provider.CreateCheckoutSession(ctx, item, s.SuccessURL, s.CancelURL, meta.Encode())
	if err != nil {
		return nil, err
	}
	s.Log.Info("checkout session created",
		zap.Uint("user_id", userID),
		zap.String("purchase_type", meta.PurchaseType),
		zap.Uint("package_id", meta.PackageID),
		zap.String("session_id", sess.ID),
	)
	return &CheckoutResult{CheckoutURL: sess.URL, SessionID: sess.ID}, nil
}

func (s *service) checkBuyer(ctx context.Context, userID uint) error {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsBlocked() {
		return appErrors.ErrAccountBlocked
	}
	return nil
}

func (s *service) creditsPurchase(ctx context.Context, userID uint, req CheckoutRequest) (PurchaseMetadata, LineItem, error) {
	pkg, err := s.Store.Catalog().CreditPackage(ctx, req.PackageID)
	if err != nil {
		return PurchaseMetadata{}, LineItem{}, err
	}
	meta := PurchaseMetadata{
		PurchaseType: PurchaseCredits,
		UserID:       userID,
		PackageID:    pkg.ID,
		Amount:       pkg.Price,
		Currency:     pkg.Currency,
		Credits:      pkg.Credits,
	}
	return meta, LineItem{Name: pkg.Name, Amount: pkg.Price, Currency: pkg.Currency}, nil
}

func (s *service) extraPurchase(ctx context.Context, userID uint, req CheckoutRequest) (PurchaseMetadata, LineItem, error) {
	if req.PropertyID == nil {
		return PurchaseMetadata{}, LineItem{}, appErrors.ValidationFields(map[string]string{"property_id": "is required for extras"})
	}
	pkg, err := s.Store.Catalog().ExtraPackage(ctx, req.PackageID)
	if err != nil {
		return PurchaseMetadata{}, LineItem{}, err
	}
	prop, err := s.Store.Properties().GetByID(ctx, *req.PropertyID)
	if err != nil {
		return PurchaseMetadata{}, LineItem{}, err
	}
	if !prop.OwnedBy(userID) {
		return PurchaseMetadata{}, LineItem{}, appErrors.ErrNotOwner
	}
	if prop.Status != models.PropertyStatusActive {
		return PurchaseMetadata{}, LineItem{}, appErrors.ErrInvalidTransition.WithMessage("extras can only be bought for active listings")
	}
	meta := PurchaseMetadata{
		PurchaseType: PurchaseExtra,
		UserID:       userID,
		PropertyID:   &prop.ID,
		PackageID:    pkg.ID,
		Amount:       pkg.Price,
		Currency:     pkg.Currency,
		DurationDays: pkg.DurationDays,
		ExtraType:    pkg.Type,
	}
	name := fmt.Sprintf("%s extra for listing #%d", pkg.Type, prop.ID)
	return meta, LineItem{Name: name, Amount: pkg.Price, Currency: pkg.Currency}, nil
}

func (s *service) adPurchase(ctx context.Context, userID uint, req CheckoutRequest) (PurchaseMetadata, LineItem, error) {
	if req.AdID == nil {
		return PurchaseMetadata{}, LineItem{}, appErrors.ValidationFields(map[string]string{"ad_id": "is required for ads"})
	}
	pkg, err := s.Store.Catalog().AdPackage(ctx, req.PackageID)
	if err != nil {
		return PurchaseMetadata{}, LineItem{}, err
	}
	ad, err := s.Ads.GetOwned(ctx, userID, *req.AdID)
	if err != nil {
		return PurchaseMetadata{}, LineItem{}, err
	}
	if ad.Status == models.AdStatusRejected {
		return PurchaseMetadata{}, LineItem{}, appErrors.ErrInvalidTransition.WithMessage("rejected ads cannot be activated")
	}
	if ad.Placement != pkg.Placement {
		return PurchaseMetadata{}, LineItem{}, appErrors.ValidationFields(map[string]string{"package_id": "does not match the ad placement"})
	}
	meta := PurchaseMetadata{
		PurchaseType: PurchaseAd,
		UserID:       userID,
		AdID:         &ad.ID,
		PackageID:    pkg.ID,
		Amount:       pkg.Price,
		Currency:     pkg.Currency,
		DurationDays: pkg.DurationDays,
	}
	name := fmt.Sprintf("%s ad for %d days", pkg.Placement, pkg.DurationDays)
	return meta, LineItem{Name: name, Amount: pkg.Price, Currency: pkg.Currency}, nil
}

// activateFree applies an extra or ad at no cost while testing mode is on.
func (s *service) activateFree(ctx context.Context, meta PurchaseMetadata) (*CheckoutResult, error) {
	now := s.now()
	record := &models.Transaction{
		UserID:     meta.UserID,
		PackageID:  &meta.PackageID,
		AmountPaid: decimal.Zero,
		Currency:   meta.Currency,
		Status:     models.TransactionStatusPaid,
		Metadata:   models.JSON{"source": "testing_mode"},
	}

	res := &CheckoutResult{Activated: true}
	var err error
	switch meta.PurchaseType {
	case PurchaseExtra:
		res.Property, err = s.Extras.Apply(ctx, s.Store, extras.Activation{
			PropertyID:   *meta.PropertyID,
			Type:         meta.ExtraType,
			DurationDays: meta.DurationDays,
			Record:       record,
		}, now)
	case PurchaseAd:
		err = s.Store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
			ad, err := s.Ads.Activate(ctx, tx, *meta.AdID, meta.DurationDays, now)
			if err != nil {
				return err
			}
			res.Ad = ad
			record.Kind = models.TransactionKindAd
			record.AdID = &ad.ID
			record.DurationDays = meta.DurationDays
			return tx.Transactions().Create(ctx, record)
		})
	}
	if err != nil {
		return nil, err
	}

	s.Log.Info("purchase activated for free in testing mode",
		zap.Uint("user_id", meta.UserID),
		zap.String("purchase_type", meta.PurchaseType),
	)
	s.emitEffect(ctx, meta, now)
	return res, nil
}

func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	evt, err := s.Provider.ParseWebhook(payload, signature)
	if err != nil {
		s.Log.Warn("webhook rejected", zap.Error(err))
		return nil, err
	}
	if evt.Type != EventCheckoutCompleted {
		s.Log.Debug("webhook ignored", zap.String("event_id", evt.ID), zap.String("type", evt.Type))
		return &WebhookResult{Ignored: true}, nil
	}

	meta, err := DecodeMetadata(evt.Metadata)
	if err != nil {
		s.Log.Error("webhook metadata rejected", zap.String("event_id", evt.ID), zap.Error(err))
		return nil, err
	}
	if evt.PaymentReference == "" {
		s.Log.Error("webhook without payment reference", zap.String("event_id", evt.ID))
		return nil, appErrors.ErrInvalidMetadata.WithMessage("payment reference is missing")
	}
	if evt.AmountTotal != 0 && evt.AmountTotal != MinorUnits(meta.Amount) {
		s.Log.Warn("webhook amount differs from package price, recording the charged amount",
			zap.String("reference", evt.PaymentReference),
			zap.Int64("amount_total", evt.AmountTotal),
			zap.String("expected", meta.Amount.StringFixed(2)),
		)
	}

	now := s.now()
	duplicate := false
	err = s.Store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		record := paidRecord(meta, evt)
		inserted, err := tx.Transactions().CreateOnce(ctx, record)
		if err != nil {
			return err
		}
		if !inserted {
			duplicate = true
			return nil
		}
		return s.applyEffect(ctx, tx, meta, now)
	})
	if err != nil {
		s.Log.Error("webhook processing failed",
			zap.String("reference", evt.PaymentReference),
			zap.String("purchase_type", meta.PurchaseType),
			zap.Error(err),
		)
		return nil, err
	}

	if duplicate {
		s.Log.Info("duplicate payment delivery ignored", zap.String("reference", evt.PaymentReference))
		return nil, appErrors.ErrDuplicatePayment
	}

	s.Log.Info("payment applied",
		zap.String("reference", evt.PaymentReference),
		zap.String("purchase_type", meta.PurchaseType),
		zap.Uint("user_id", meta.UserID),
	)
	events.Emit(ctx, s.Publisher, s.Log, events.PaymentReceived, events.PaymentEvent{
		Reference:    evt.PaymentReference,
		PurchaseType: meta.PurchaseType,
		UserID:       meta.UserID,
	})
	s.emitEffect(ctx, *meta, now)
	return &WebhookResult{Processed: true}, nil
}

func (s *service) applyEffect(ctx context.Context, tx repositories.Store, meta *PurchaseMetadata, now time.Time) error {
	switch meta.PurchaseType {
	case PurchaseCredits:
		return s.Credits.Credit(ctx, tx, meta.UserID, meta.Credits, nil)
	case PurchaseExtra:
		_, err := s.Extras.Apply(ctx, tx, extras.Activation{
			PropertyID:   *meta.PropertyID,
			Type:         meta.ExtraType,
			DurationDays: meta.DurationDays,
		}, now)
		return err
	case PurchaseAd:
		_, err := s.Ads.Activate(ctx, tx, *meta.AdID, meta.DurationDays, now)
		return err
	}
	return appErrors.ErrInvalidMetadata
}

func (s *service) emitEffect(ctx context.Context, meta PurchaseMetadata, now time.Time) {
	switch meta.PurchaseType {
	case PurchaseCredits:
		events.Emit(ctx, s.Publisher, s.Log, events.CreditsAdded, events.CreditsEvent{UserID: meta.UserID, Credits: meta.Credits})
	case PurchaseExtra:
		events.Emit(ctx, s.Publisher, s.Log, events.ExtraActivated, extras.ExtraEvent(*meta.PropertyID, meta.ExtraType, meta.DurationDays, now))
	case PurchaseAd:
		events.Emit(ctx, s.Publisher, s.Log, events.AdActivated, events.AdEvent{AdID: *meta.AdID, EndsAt: now.AddDate(0, 0, meta.DurationDays)})
	}
}

func paidRecord(meta *PurchaseMetadata, evt *WebhookEvent) *models.Transaction {
	ref := evt.PaymentReference
	record := &models.Transaction{
		UserID:           meta.UserID,
		PropertyID:       meta.PropertyID,
		AdID:             meta.AdID,
		PackageID:        &meta.PackageID,
		Credits:          meta.Credits,
		ExtraType:        meta.ExtraType,
		DurationDays:     meta.DurationDays,
		AmountPaid:       meta.Amount,
		Currency:         meta.Currency,
		Status:           models.TransactionStatusPaid,
		PaymentReference: &ref,
		Metadata:         models.NewJSON(evt.Metadata),
	}
	if evt.AmountTotal != 0 {
		record.AmountPaid = FromMinorUnits(evt.AmountTotal)
	}
	switch meta.PurchaseType {
	case PurchaseCredits:
		record.Kind = models.TransactionKindCredit
	case PurchaseExtra:
		record.Kind = models.TransactionKindExtra
	case PurchaseAd:
		record.Kind = models.TransactionKindAd
	}
	return record
}

// IsClientError reports whether a webhook failure should not be retried by the provider.
func IsClientError(err error) bool {
	return errors.Is(err, appErrors.ErrInvalidSignature) || errors.Is(err, appErrors.ErrInvalidMetadata)
}

// IsDuplicate reports a payment that was already applied.
func IsDuplicate(err error) bool {
	return errors.Is(err, appErrors.ErrDuplicatePayment)
}
