package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/events"
	"pronat/internal/models"
	"pronat/internal/repositories/memstore"
	"pronat/internal/services/ads"
	"pronat/internal/services/credit"
	"pronat/internal/services/extras"
	"pronat/internal/services/settings"
	"pronat/internal/services/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateCheckoutSession(ctx context.Context, item LineItem, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error) {
	args := m.Called(ctx, item, successURL, cancelURL, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CheckoutSession), args.Error(1)
}

func (m *MockProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WebhookEvent), args.Error(1)
}

type fixture struct {
	store    *memstore.Store
	provider *MockProvider
	rec      *events.Recorder
	svc      *service
	now      time.Time

	user      *models.User
	property  *models.Property
	ad        *models.Ad
	creditPkg *models.CreditPackage
	extraPkg  *models.ExtraPackage
	adPkg     *models.AdPackage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	log := zap.NewNop()
	rec := &events.Recorder{}

	f := &fixture{
		store:    store,
		provider: new(MockProvider),
		rec:      rec,
		now:      time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	f.user = &models.User{Email: "buyer@example.com", CreditsRemaining: 1}
	require.NoError(t, store.Users().Create(ctx, f.user))
	expires := f.now.AddDate(0, 0, 60)
	f.property = &models.Property{UserID: f.user.ID, Title: "Villa", ListingType: models.ListingTypeSale,
		Status: models.PropertyStatusActive, ExpiresAt: &expires}
	require.NoError(t, store.Properties().Create(ctx, f.property))
	f.ad = &models.Ad{UserID: f.user.ID, Title: "Banner", Placement: ads.PlacementHomeTop, Status: models.AdStatusPending}
	require.NoError(t, store.Ads().Create(ctx, f.ad))

	f.creditPkg = &models.CreditPackage{Name: "5 credits", Credits: 5, Price: decimal.RequireFromString("9.99"), Currency: "EUR", IsActive: true}
	require.NoError(t, store.Catalog().SaveCreditPackage(ctx, f.creditPkg))
	f.extraPkg = &models.ExtraPackage{Type: models.ExtraFeatured, DurationDays: 7, Price: decimal.RequireFromString("4.00"), Currency: "EUR", IsActive: true}
	require.NoError(t, store.Catalog().SaveExtraPackage(ctx, f.extraPkg))
	f.adPkg = &models.AdPackage{Placement: ads.PlacementHomeTop, DurationDays: 30, Price: decimal.RequireFromString("50.00"), Currency: "EUR", IsActive: true}
	require.NoError(t, store.Catalog().SaveAdPackage(ctx, f.adPkg))

	f.svc = NewService(Deps{
		Store:      store,
		Provider:   f.provider,
		Settings:   settings.NewService(store, log),
		Credits:    credit.NewService(store, rec, log),
		Extras:     extras.NewService(store, rec, log),
		Ads:        ads.NewService(store, storage.NewMemory(), rec, log),
		Publisher:  rec,
		Log:        log,
		SuccessURL: "https://pronat.test/paid",
		CancelURL:  "https://pronat.test/cancelled",
	}).(*service)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) deliver(t *testing.T, payload string, evt *WebhookEvent) {
	t.Helper()
	f.provider.On("ParseWebhook", []byte(payload), "sig").Return(evt, nil)
}

func (f *fixture) completed(ref string, meta PurchaseMetadata) *WebhookEvent {
	return &WebhookEvent{
		ID:               "evt_" + ref,
		Type:             EventCheckoutCompleted,
		PaymentReference: ref,
		Metadata:         meta.Encode(),
		AmountTotal:      MinorUnits(meta.Amount),
		Currency:         "eur",
	}
}

func (f *fixture) creditsMeta() PurchaseMetadata {
	return PurchaseMetadata{
		PurchaseType: PurchaseCredits,
		UserID:       f.user.ID,
		PackageID:    f.creditPkg.ID,
		Amount:       f.creditPkg.Price,
		Currency:     "EUR",
		Credits:      5,
	}
}

func (f *fixture) balance(t *testing.T) int {
	t.Helper()
	u, err := f.store.Users().GetByID(context.Background(), f.user.ID)
	require.NoError(t, err)
	return u.CreditsRemaining
}

func TestHandleWebhook_Credits(t *testing.T) {
	f := newFixture(t)
	f.deliver(t, "p1", f.completed("pi_1", f.creditsMeta()))

	res, err := f.svc.HandleWebhook(context.Background(), []byte("p1"), "sig")
	require.NoError(t, err)
	assert.True(t, res.Processed)
	assert.Equal(t, 6, f.balance(t))

	ledger := f.store.AllTransactions()
	require.Len(t, ledger, 1)
	assert.Equal(t, models.TransactionKindCredit, ledger[0].Kind)
	assert.Equal(t, "pi_1", *ledger[0].PaymentReference)
	assert.Equal(t, 5, ledger[0].Credits)
	assert.True(t, f.creditPkg.Price.Equal(ledger[0].AmountPaid))
	assert.Equal(t, []string{events.PaymentReceived, events.CreditsAdded}, f.rec.Keys())
}

func TestHandleWebhook_RecordsChargedAmount(t *testing.T) {
	f := newFixture(t)
	evt := f.completed("pi_coupon", f.creditsMeta())
	evt.AmountTotal = 799
	f.deliver(t, "p1", evt)

	_, err := f.svc.HandleWebhook(context.Background(), []byte("p1"), "sig")
	require.NoError(t, err)

	ledger := f.store.AllTransactions()
	require.Len(t, ledger, 1)
	assert.True(t, decimal.RequireFromString("7.99").Equal(ledger[0].AmountPaid), "got %s", ledger[0].AmountPaid)
	assert.Equal(t, 6, f.balance(t))
}

func TestHandleWebhook_DuplicateDelivery(t *testing.T) {
	f := newFixture(t)
	f.deliver(t, "p1", f.completed("pi_1", f.creditsMeta()))
	ctx := context.Background()

	_, err := f.svc.HandleWebhook(ctx, []byte("p1"), "sig")
	require.NoError(t, err)

	_, err = f.svc.HandleWebhook(ctx, []byte("p1"), "sig")
	assert.True(t, IsDuplicate(err))
	assert.False(t, IsClientError(err))
	assert.Equal(t, 6, f.balance(t), "a replay must not credit twice")
	assert.Len(t, f.store.AllTransactions(), 1)
}

func TestHandleWebhook_ConcurrentDeliveries(t *testing.T) {
	f := newFixture(t)
	f.deliver(t, "p1", f.completed("pi_race", f.creditsMeta()))

	const deliveries = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.HandleWebhook(context.Background(), []byte("p1"), "sig")
			if err == nil && res.Processed {
				mu.Lock()
				processed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, processed)
	assert.Equal(t, 6, f.balance(t))
	assert.Len(t, f.store.AllTransactions(), 1)
}

func TestHandleWebhook_Extra(t *testing.T) {
	f := newFixture(t)
	meta := PurchaseMetadata{
		PurchaseType: PurchaseExtra,
		UserID:       f.user.ID,
		PropertyID:   &f.property.ID,
		PackageID:    f.extraPkg.ID,
		Amount:       f.extraPkg.Price,
		Currency:     "EUR",
		DurationDays: 7,
		ExtraType:    models.ExtraFeatured,
	}
	f.deliver(t, "p2", f.completed("pi_2", meta))

	_, err := f.svc.HandleWebhook(context.Background(), []byte("p2"), "sig")
	require.NoError(t, err)

	prop, err := f.store.Properties().GetByID(context.Background(), f.property.ID)
	require.NoError(t, err)
	assert.True(t, prop.IsFeatured)
	assert.Equal(t, f.now.AddDate(0, 0, 7), *prop.FeaturedUntil)

	ledger := f.store.AllTransactions()
	require.Len(t, ledger, 1, "the webhook record is the only ledger row")
	assert.Equal(t, models.TransactionKindExtra, ledger[0].Kind)
	assert.Equal(t, []string{events.PaymentReceived, events.ExtraActivated}, f.rec.Keys())
}

func TestHandleWebhook_Ad(t *testing.T) {
	f := newFixture(t)
	meta := PurchaseMetadata{
		PurchaseType: PurchaseAd,
		UserID:       f.user.ID,
		AdID:         &f.ad.ID,
		PackageID:    f.adPkg.ID,
		Amount:       f.adPkg.Price,
		Currency:     "EUR",
		DurationDays: 30,
	}
	f.deliver(t, "p3", f.completed("pi_3", meta))

	_, err := f.svc.HandleWebhook(context.Background(), []byte("p3"), "sig")
	require.NoError(t, err)

	ad, err := f.store.Ads().GetByID(context.Background(), f.ad.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AdStatusActive, ad.Status)
	assert.Equal(t, f.now.AddDate(0, 0, 30), *ad.EndsAt)
}

func TestHandleWebhook_EffectFailureLeavesNothing(t *testing.T) {
	f := newFixture(t)
	missing := uint(9999)
	meta := PurchaseMetadata{
		PurchaseType: PurchaseExtra,
		UserID:       f.user.ID,
		PropertyID:   &missing,
		PackageID:    f.extraPkg.ID,
		Amount:       f.extraPkg.Price,
		Currency:     "EUR",
		DurationDays: 7,
		ExtraType:    models.ExtraUrgent,
	}
	f.deliver(t, "p4", f.completed("pi_4", meta))

	_, err := f.svc.HandleWebhook(context.Background(), []byte("p4"), "sig")
	assert.ErrorIs(t, err, appErrors.ErrPropertyNotFound)
	assert.False(t, IsClientError(err))
	assert.Empty(t, f.store.AllTransactions(), "a failed delivery must stay retryable")
	assert.Empty(t, f.rec.Keys())
}

func TestHandleWebhook_Rejections(t *testing.T) {
	t.Run("bad signature", func(t *testing.T) {
		f := newFixture(t)
		f.provider.On("ParseWebhook", []byte("x"), "forged").Return(nil, appErrors.ErrInvalidSignature)

		_, err := f.svc.HandleWebhook(context.Background(), []byte("x"), "forged")
		assert.True(t, IsClientError(err))
		assert.Empty(t, f.store.AllTransactions())
	})

	t.Run("other event type", func(t *testing.T) {
		f := newFixture(t)
		f.deliver(t, "x", &WebhookEvent{ID: "evt_1", Type: "payment_intent.created"})

		res, err := f.svc.HandleWebhook(context.Background(), []byte("x"), "sig")
		require.NoError(t, err)
		assert.True(t, res.Ignored)
		assert.False(t, res.Processed)
	})

	t.Run("malformed metadata", func(t *testing.T) {
		f := newFixture(t)
		f.deliver(t, "x", &WebhookEvent{ID: "evt_2", Type: EventCheckoutCompleted, PaymentReference: "pi_x",
			Metadata: map[string]string{"purchase_type": "credits"}})

		_, err := f.svc.HandleWebhook(context.Background(), []byte("x"), "sig")
		assert.ErrorIs(t, err, appErrors.ErrInvalidMetadata)
		assert.True(t, IsClientError(err))
		assert.Equal(t, 1, f.balance(t))
	})

	t.Run("missing reference", func(t *testing.T) {
		f := newFixture(t)
		evt := f.completed("", f.creditsMeta())
		f.deliver(t, "x", evt)

		_, err := f.svc.HandleWebhook(context.Background(), []byte("x"), "sig")
		assert.ErrorIs(t, err, appErrors.ErrInvalidMetadata)
		assert.Equal(t, 1, f.balance(t))
	})
}

func TestCreateCheckout_Credits(t *testing.T) {
	f := newFixture(t)
	f.provider.On("CreateCheckoutSession", mock.Anything,
		mock.MatchedBy(func(item LineItem) bool { return item.Amount.Equal(f.creditPkg.Price) }),
		"https://pronat.test/paid", "https://pronat.test/cancelled",
		mock.MatchedBy(func(m map[string]string) bool {
			return m["purchase_type"] == PurchaseCredits && m["credits"] == "5" && m["amount"] == "9.99"
		}),
	).Return(&CheckoutSession{ID: "cs_1", URL: "https://checkout.test/cs_1"}, nil).Once()

	res, err := f.svc.CreateCheckout(context.Background(), f.user.ID, CheckoutRequest{Type: PurchaseCredits, PackageID: f.creditPkg.ID})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/cs_1", res.CheckoutURL)
	assert.False(t, res.Activated)
	assert.Equal(t, 1, f.balance(t), "nothing changes before the webhook")
	f.provider.AssertExpectations(t)
}

func TestCreateCheckout_CreditsStayPaidInTestingMode(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Settings().SetTestingMode(context.Background(), true))
	f.provider.On("CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&CheckoutSession{ID: "cs_2", URL: "https://checkout.test/cs_2"}, nil).Once()

	res, err := f.svc.CreateCheckout(context.Background(), f.user.ID, CheckoutRequest{Type: PurchaseCredits, PackageID: f.creditPkg.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, res.CheckoutURL)
	assert.Equal(t, 1, f.balance(t))
}

func TestCreateCheckout_TestingModeActivatesExtra(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Settings().SetTestingMode(context.Background(), true))

	res, err := f.svc.CreateCheckout(context.Background(), f.user.ID, CheckoutRequest{
		Type: PurchaseExtra, PackageID: f.extraPkg.ID, PropertyID: &f.property.ID,
	})
	require.NoError(t, err)
	assert.True(t, res.Activated)
	require.NotNil(t, res.Property)
	assert.Equal(t, f.now.AddDate(0, 0, 7), *res.Property.FeaturedUntil)

	ledger := f.store.AllTransactions()
	require.Len(t, ledger, 1)
	assert.True(t, ledger[0].AmountPaid.IsZero())
	assert.Equal(t, "testing_mode", ledger[0].Metadata["source"])
	assert.Equal(t, []string{events.ExtraActivated}, f.rec.Keys())
	f.provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateCheckout_TestingModeActivatesAd(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Settings().SetTestingMode(context.Background(), true))

	res, err := f.svc.CreateCheckout(context.Background(), f.user.ID, CheckoutRequest{
		Type: PurchaseAd, PackageID: f.adPkg.ID, AdID: &f.ad.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Ad)
	assert.Equal(t, models.AdStatusActive, res.Ad.Status)

	ledger := f.store.AllTransactions()
	require.Len(t, ledger, 1)
	assert.Equal(t, models.TransactionKindAd, ledger[0].Kind)
}

func TestCreateCheckout_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := &models.User{Email: "stranger@example.com"}
	require.NoError(t, f.store.Users().Create(ctx, stranger))
	blocked := &models.User{Email: "blocked@example.com", Status: models.UserStatusBlocked}
	require.NoError(t, f.store.Users().Create(ctx, blocked))
	draft := &models.Property{UserID: f.user.ID, Title: "Draft", ListingType: models.ListingTypeRent, Status: models.PropertyStatusDraft}
	require.NoError(t, f.store.Properties().Create(ctx, draft))
	sidebarPkg := &models.AdPackage{Placement: ads.PlacementSearchSidebar, DurationDays: 7, Price: decimal.NewFromInt(10), Currency: "EUR", IsActive: true}
	require.NoError(t, f.store.Catalog().SaveAdPackage(ctx, sidebarPkg))

	tests := []struct {
		name    string
		userID  uint
		req     CheckoutRequest
		wantErr error
		kind    appErrors.Kind
	}{
		{name: "unknown type", userID: f.user.ID, req: CheckoutRequest{Type: "gift", PackageID: 1}, kind: appErrors.KindValidation},
		{name: "blocked account", userID: blocked.ID, req: CheckoutRequest{Type: PurchaseCredits, PackageID: f.creditPkg.ID}, wantErr: appErrors.ErrAccountBlocked},
		{name: "unknown package", userID: f.user.ID, req: CheckoutRequest{Type: PurchaseCredits, PackageID: 999}, wantErr: appErrors.ErrPackageNotFound},
		{name: "extra without listing", userID: f.user.ID, req: CheckoutRequest{Type: PurchaseExtra, PackageID: f.extraPkg.ID}, kind: appErrors.KindValidation},
		{name: "extra on someone else's listing", userID: stranger.ID, req: CheckoutRequest{Type: PurchaseExtra, PackageID: f.extraPkg.ID, PropertyID: &f.property.ID}, wantErr: appErrors.ErrNotOwner},
		{name: "extra on a draft", userID: f.user.ID, req: CheckoutRequest{Type: PurchaseExtra, PackageID: f.extraPkg.ID, PropertyID: &draft.ID}, wantErr: appErrors.ErrInvalidTransition},
		{name: "ad placement mismatch", userID: f.user.ID, req: CheckoutRequest{Type: PurchaseAd, PackageID: sidebarPkg.ID, AdID: &f.ad.ID}, kind: appErrors.KindValidation},
		{name: "ad of someone else", userID: stranger.ID, req: CheckoutRequest{Type: PurchaseAd, PackageID: f.adPkg.ID, AdID: &f.ad.ID}, wantErr: appErrors.ErrNotOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateCheckout(ctx, tt.userID, tt.req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.Equal(t, tt.kind, appErrors.KindOf(err))
			}
		})
	}
	f.provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
