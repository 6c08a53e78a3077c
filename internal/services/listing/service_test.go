package listing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/events"
	"pronat/internal/models"
	"pronat/internal/repositories"
	"pronat/internal/repositories/cache"
	"pronat/internal/repositories/memstore"
	"pronat/internal/services/compliance"
	"pronat/internal/services/credit"
	"pronat/internal/services/settings"
	"pronat/internal/services/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, html string) error {
	return m.Called(ctx, to, subject, html).Error(0)
}

type fixture struct {
	store  *memstore.Store
	rec    *events.Recorder
	mailer *MockMailer
	blobs  *storage.Memory
	svc    *service
	now    time.Time
}

func newFixture(t *testing.T, keywords ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	for _, kw := range keywords {
		require.NoError(t, store.Keywords().Create(ctx, &models.BlockedKeyword{Keyword: kw, IsActive: true}))
	}
	log := zap.NewNop()
	rec := &events.Recorder{}
	f := &fixture{
		store:  store,
		rec:    rec,
		mailer: new(MockMailer),
		blobs:  storage.NewMemory(),
		now:    time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(Deps{
		Store:      store,
		Compliance: compliance.NewService(store, cache.Noop{}, log),
		Credits:    credit.NewService(store, rec, log),
		Settings:   settings.NewService(store, log),
		Blobs:      f.blobs,
		Mailer:     f.mailer,
		Publisher:  rec,
		Log:        log,
	}).(*service)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) user(t *testing.T, email string, credits int) *models.User {
	t.Helper()
	u := &models.User{Email: email, FullName: "Arta Hoxha", CreditsRemaining: credits}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) draft(t *testing.T, userID uint, in CreateInput) *models.Property {
	t.Helper()
	in.Publish = false
	p, err := f.svc.CreateDraft(context.Background(), userID, in)
	require.NoError(t, err)
	return p
}

func (f *fixture) balance(t *testing.T, userID uint) int {
	t.Helper()
	u, err := f.store.Users().GetByID(context.Background(), userID)
	require.NoError(t, err)
	return u.CreditsRemaining
}

func (f *fixture) status(t *testing.T, propertyID uint) string {
	t.Helper()
	p, err := f.store.Properties().GetByID(context.Background(), propertyID)
	require.NoError(t, err)
	return p.Status
}

func validInput() CreateInput {
	return CreateInput{
		Title:        "Apartament 2+1 në Tiranë",
		Description:  "Pranë parkut, kati i tretë",
		Price:        decimal.RequireFromString("85000"),
		City:         "Tirana",
		PropertyType: "apartment",
		ListingType:  models.ListingTypeSale,
		Bedrooms:     2,
	}
}

func TestCreateDraft(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", 0)

	p, err := f.svc.CreateDraft(context.Background(), owner.ID, validInput())
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusDraft, p.Status)
	assert.Equal(t, "EUR", p.Currency)
	assert.Nil(t, p.ExpiresAt)

	tests := []struct {
		name  string
		mod   func(*CreateInput)
		field string
	}{
		{"missing title", func(in *CreateInput) { in.Title = "" }, "title"},
		{"bad listing type", func(in *CreateInput) { in.ListingType = "lease" }, "listing_type"},
		{"negative price", func(in *CreateInput) { in.Price = decimal.NewFromInt(-1) }, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mod(&in)
			_, err := f.svc.CreateDraft(context.Background(), owner.ID, in)
			var de *appErrors.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, appErrors.KindValidation, de.Kind)
			assert.Contains(t, de.Fields, tt.field)
		})
	}
}

func TestPublish_Succeeds(t *testing.T) {
	f := newFixture(t, "agjenci")
	owner := f.user(t, "owner@example.com", 1)
	p := f.draft(t, owner.ID, validInput())

	got, err := f.svc.Publish(context.Background(), owner.ID, p.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PropertyStatusActive, got.Status)
	require.NotNil(t, got.ExpiresAt)
	assert.Equal(t, f.now.Add(90*24*time.Hour), *got.ExpiresAt)
	assert.Equal(t, 0, f.balance(t, owner.ID))
	assert.Equal(t, models.PropertyStatusActive, f.status(t, p.ID))
	assert.Equal(t, []string{events.ListingPublished}, f.rec.Keys())

	stored, _ := f.store.Properties().GetByID(context.Background(), p.ID)
	assert.Equal(t, *got.ExpiresAt, *stored.ExpiresAt)
}

func TestPublish_InsufficientCredits(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", 0)
	p := f.draft(t, owner.ID, validInput())

	_, err := f.svc.Publish(context.Background(), owner.ID, p.ID)
	assert.ErrorIs(t, err, appErrors.ErrInsufficientCredits)
	assert.Equal(t, models.PropertyStatusDraft, f.status(t, p.ID))
	assert.Equal(t, 0, f.balance(t, owner.ID))
}

func TestPublish_ComplianceViolation(t *testing.T) {
	f := newFixture(t, "agjenci")
	owner := f.user(t, "owner@example.com", 3)
	in := validInput()
	in.Description = "shkëlqyeshëm për agjenci"
	p := f.draft(t, owner.ID, in)
	f.mailer.On("Send", mock.Anything, "owner@example.com", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.svc.Publish(context.Background(), owner.ID, p.ID)
	assert.ErrorIs(t, err, appErrors.ErrComplianceViolation)
	assert.Equal(t, appErrors.KindCompliance, appErrors.KindOf(err))

	u, _ := f.store.Users().GetByID(context.Background(), owner.ID)
	assert.Equal(t, models.UserStatusBlocked, u.Status)
	assert.Equal(t, 3, u.CreditsRemaining, "no credit is consumed on a violation")
	assert.Equal(t, models.PropertyStatusBlocked, f.status(t, p.ID))

	flags := f.store.AllFlags()
	require.Len(t, flags, 1)
	assert.Equal(t, "agjenci", flags[0].MatchedKeyword)
	assert.Equal(t, owner.ID, flags[0].UserID)
	require.NotNil(t, flags[0].PropertyID)
	assert.Equal(t, p.ID, *flags[0].PropertyID)

	assert.Equal(t, []string{events.ListingBlocked}, f.rec.Keys())
	f.mailer.AssertExpectations(t)
}

func TestPublish_ScreensOwnerName(t *testing.T) {
	f := newFixture(t, "agency")
	owner := &models.User{Email: "broker@example.com", FullName: "Best Agency Sh.p.k", CreditsRemaining: 1}
	require.NoError(t, f.store.Users().Create(context.Background(), owner))
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	in := validInput()
	in.Publish = true
	p, err := f.svc.CreateDraft(context.Background(), owner.ID, in)
	assert.ErrorIs(t, err, appErrors.ErrComplianceViolation)
	require.NotNil(t, p, "the draft is returned even though publication failed")
	assert.Equal(t, 1, f.balance(t, owner.ID))
}

func TestPublish_ViolationNoticeFailureDoesNotMaskBlock(t *testing.T) {
	f := newFixture(t, "agjenci")
	owner := f.user(t, "owner@example.com", 1)
	in := validInput()
	in.Title = "AGJENCI imobiliare"
	p := f.draft(t, owner.ID, in)
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	_, err := f.svc.Publish(context.Background(), owner.ID, p.ID)
	assert.ErrorIs(t, err, appErrors.ErrComplianceViolation)
	assert.Equal(t, models.PropertyStatusBlocked, f.status(t, p.ID))
}

func TestPublish_Rejections(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", 5)
	other := f.user(t, "other@example.com", 5)
	p := f.draft(t, owner.ID, validInput())
	ctx := context.Background()

	_, err := f.svc.Publish(ctx, other.ID, p.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotOwner)

	_, err = f.svc.Publish(ctx, owner.ID, 9999)
	assert.ErrorIs(t, err, appErrors.ErrPropertyNotFound)

	_, err = f.svc.Publish(ctx, owner.ID, p.ID)
	require.NoError(t, err)
	_, err = f.svc.Publish(ctx, owner.ID, p.ID)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition, "already active")
	assert.Equal(t, 4, f.balance(t, owner.ID))

	blocked := f.user(t, "blocked@example.com", 5)
	require.NoError(t, f.store.Users().UpdateStatus(ctx, blocked.ID, models.UserStatusBlocked))
	bp := f.draft(t, blocked.ID, validInput())
	_, err = f.svc.Publish(ctx, blocked.ID, bp.ID)
	assert.ErrorIs(t, err, appErrors.ErrAccountBlocked)
	assert.Equal(t, 5, f.balance(t, blocked.ID))
}

func TestPublish_TestingModeSkipsDebit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Settings().SetTestingMode(context.Background(), true))
	owner := f.user(t, "owner@example.com", 0)
	p := f.draft(t, owner.ID, validInput())

	got, err := f.svc.Publish(context.Background(), owner.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusActive, got.Status)
	assert.Equal(t, 0, f.balance(t, owner.ID))
}

func TestPublish_DebitFailureRollsBackActivation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", 1)
	p := f.draft(t, owner.ID, validInput())
	f.store.Fail("users.DecrementCredit", appErrors.Unavailable(errors.New("connection reset")))

	_, err := f.svc.Publish(context.Background(), owner.ID, p.ID)
	assert.Equal(t, appErrors.KindUnavailable, appErrors.KindOf(err))
	assert.Equal(t, models.PropertyStatusDraft, f.status(t, p.ID))
	assert.Equal(t, 1, f.balance(t, owner.ID))
	assert.Empty(t, f.rec.Keys())
}

func TestPublish_ConcurrentWithSingleCredit(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", 1)
	first := f.draft(t, owner.ID, validInput())
	second := f.draft(t, owner.ID, validInput())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uint{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = f.svc.Publish(context.Background(), owner.ID, id)
		}(i, id)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, appErrors.ErrInsufficientCredits):
			short++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, 0, f.balance(t, owner.ID))

	statuses := []string{f.status(t, first.ID), f.status(t, second.ID)}
	assert.ElementsMatch(t, []string{models.PropertyStatusActive, models.PropertyStatusDraft}, statuses)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", 1)
	p := f.draft(t, owner.ID, validInput())
	ctx := context.Background()

	_, err := f.svc.SetStatus(ctx, owner.ID, p.ID, models.PropertyStatusSold)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition, "drafts cannot be sold")

	_, err = f.svc.Publish(ctx, owner.ID, p.ID)
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, owner.ID, p.ID, models.PropertyStatusActive)
	assert.Equal(t, appErrors.KindValidation, appErrors.KindOf(err))

	got, err := f.svc.SetStatus(ctx, owner.ID, p.ID, models.PropertyStatusRented)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusRented, got.Status)

	_, err = f.svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, appErrors.ErrPropertyNotFound, "rented listings leave the public view")
}

func TestSearch_Ordering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.now = time.Now()
	owner := f.user(t, "owner@example.com", 10)

	publish := func(title string) *models.Property {
		in := validInput()
		in.Title = title
		p := f.draft(t, owner.ID, in)
		got, err := f.svc.Publish(ctx, owner.ID, p.ID)
		require.NoError(t, err)
		return got
	}
	plain := publish("plain")
	boosted := publish("boosted")
	urgent := publish("urgent")
	featured := publish("featured")
	newest := publish("newest")

	future := f.now.Add(24 * time.Hour)
	past := f.now.Add(-time.Hour)
	require.NoError(t, f.store.Properties().SaveVisibility(ctx, &models.Property{ID: featured.ID, IsFeatured: true, FeaturedUntil: &future}))
	require.NoError(t, f.store.Properties().SaveVisibility(ctx, &models.Property{ID: urgent.ID, IsUrgent: true, UrgentUntil: &future}))
	require.NoError(t, f.store.Properties().SaveVisibility(ctx, &models.Property{ID: boosted.ID, LastBoostedAt: &past}))
	// Lapsed featured flag no longer lifts the listing.
	require.NoError(t, f.store.Properties().SaveVisibility(ctx, &models.Property{ID: newest.ID, IsFeatured: true, FeaturedUntil: &past}))

	results, total, err := f.svc.Search(ctx, repositories.PropertyFilter{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	var titles []string
	for _, p := range results {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{featured.Title, urgent.Title, boosted.Title, newest.Title, plain.Title}, titles)
}

func TestSearch_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.now = time.Now()
	owner := f.user(t, "owner@example.com", 10)

	cheap := validInput()
	cheap.City = "Durrës"
	cheap.Price = decimal.RequireFromString("40000")
	cheap.ListingType = models.ListingTypeRent
	for _, in := range []CreateInput{validInput(), cheap} {
		p := f.draft(t, owner.ID, in)
		_, err := f.svc.Publish(ctx, owner.ID, p.ID)
		require.NoError(t, err)
	}
	f.draft(t, owner.ID, validInput())

	maxPrice := decimal.RequireFromString("50000")
	tests := []struct {
		name   string
		filter repositories.PropertyFilter
		want   int
	}{
		{"everything active", repositories.PropertyFilter{}, 2},
		{"city ignores case", repositories.PropertyFilter{City: "durrës"}, 1},
		{"listing type", repositories.PropertyFilter{ListingType: models.ListingTypeSale}, 1},
		{"max price", repositories.PropertyFilter{MaxPrice: &maxPrice}, 1},
		{"bedrooms", repositories.PropertyFilter{MinBedrooms: 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := f.svc.Search(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(tt.want), total)
		})
	}
}

func TestRecordCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com", 1)
	p := f.draft(t, owner.ID, validInput())

	assert.ErrorIs(t, f.svc.RecordView(ctx, p.ID), appErrors.ErrPropertyNotFound, "drafts are not public")

	_, err := f.svc.Publish(ctx, owner.ID, p.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.RecordView(ctx, p.ID))
	require.NoError(t, f.svc.RecordView(ctx, p.ID))
	require.NoError(t, f.svc.RecordContact(ctx, p.ID))

	stored, _ := f.store.Properties().GetByID(ctx, p.ID)
	assert.Equal(t, 2, stored.ViewsCount)
	assert.Equal(t, 1, stored.ContactsCount)
}

func TestAddImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com", 0)
	p := f.draft(t, owner.ID, validInput())

	got, err := f.svc.AddImages(ctx, owner.ID, p.ID, []Upload{
		{Filename: "front.JPG", ContentType: "image/jpeg", Size: 4, Body: strings.NewReader("jpeg")},
	})
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.True(t, strings.HasPrefix(got.Images[0], "memory://properties/"))
	assert.True(t, strings.HasSuffix(got.Images[0], ".jpg"))
	assert.Len(t, f.blobs.Objects, 1)

	_, err = f.svc.AddImages(ctx, owner.ID, p.ID, []Upload{
		{Filename: "doc.pdf", ContentType: "application/pdf", Size: 4, Body: strings.NewReader("%PDF")},
	})
	assert.Equal(t, appErrors.KindValidation, appErrors.KindOf(err))

	other := f.user(t, "other@example.com", 0)
	_, err = f.svc.AddImages(ctx, other.ID, p.ID, []Upload{
		{Filename: "x.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x")},
	})
	assert.ErrorIs(t, err, appErrors.ErrNotOwner)
}
