package memstore

import (
	"context"
	"sort"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"
	"pronat/internal/repositories"
)

type otps struct{ d *db }

func (r *otps) Create(ctx context.Context, c *models.OTPCode) error {
	unlock, err := r.d.lock(ctx, "otps.Create")
	if err != nil {
		return err
	}
	defer unlock()
	c.ID = r.d.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.d.st.otps[c.ID] = *c
	return nil
}

func (r *otps) FindValid(ctx context.Context, email, code string, now time.Time) (*models.OTPCode, error) {
	unlock, err := r.d.lock(ctx, "otps.FindValid")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var best *models.OTPCode
	for _, c := range r.d.st.otps {
		if c.Email != email || c.Code != code || c.Used || !c.ExpiresAt.After(now) {
			continue
		}
		if best == nil || c.CreatedAt.After(best.CreatedAt) || (c.CreatedAt.Equal(best.CreatedAt) && c.ID > best.ID) {
			cp := c
			best = &cp
		}
	}
	if best == nil {
		return nil, appErrors.ErrInvalidOrExpiredCode
	}
	return best, nil
}

func (r *otps) MarkUsed(ctx context.Context, id uint) (bool, error) {
	unlock, err := r.d.lock(ctx, "otps.MarkUsed")
	if err != nil {
		return false, err
	}
	defer unlock()
	c, ok := r.d.st.otps[id]
	if !ok || c.Used {
		return false, nil
	}
	c.Used = true
	r.d.st.otps[id] = c
	return true, nil
}

func (r *otps) InvalidateOutstanding(ctx context.Context, email string) error {
	unlock, err := r.d.lock(ctx, "otps.InvalidateOutstanding")
	if err != nil {
		return err
	}
	defer unlock()
	for id, c := range r.d.st.otps {
		if c.Email == email && !c.Used {
			c.Used = true
			r.d.st.otps[id] = c
		}
	}
	return nil
}

// Codes returns every stored OTP row for email, oldest first.
func (s *Store) Codes(email string) []models.OTPCode {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.OTPCode
	for _, c := range s.db.st.otps {
		if c.Email == email {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type keywords struct{ d *db }

func (r *keywords) list(activeOnly bool) []models.BlockedKeyword {
	var out []models.BlockedKeyword
	for _, k := range r.d.st.keywords {
		if !activeOnly || k.IsActive {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out
}

func (r *keywords) ListActive(ctx context.Context) ([]models.BlockedKeyword, error) {
	unlock, err := r.d.lock(ctx, "keywords.ListActive")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.list(true), nil
}

func (r *keywords) List(ctx context.Context) ([]models.BlockedKeyword, error) {
	unlock, err := r.d.lock(ctx, "keywords.List")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.list(false), nil
}

func (r *keywords) Create(ctx context.Context, k *models.BlockedKeyword) error {
	unlock, err := r.d.lock(ctx, "keywords.Create")
	if err != nil {
		return err
	}
	defer unlock()
	for _, existing := range r.d.st.keywords {
		if existing.Keyword == k.Keyword {
			return repositories.ErrDuplicateKey
		}
	}
	k.ID = r.d.id()
	k.CreatedAt = time.Now()
	r.d.st.keywords[k.ID] = *k
	return nil
}

func (r *keywords) Delete(ctx context.Context, id uint) error {
	unlock, err := r.d.lock(ctx, "keywords.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.d.st.keywords[id]; !ok {
		return appErrors.ErrKeywordNotFound
	}
	delete(r.d.st.keywords, id)
	return nil
}

type flags struct{ d *db }

func (r *flags) Create(ctx context.Context, f *models.ComplianceFlag) error {
	unlock, err := r.d.lock(ctx, "flags.Create")
	if err != nil {
		return err
	}
	defer unlock()
	f.ID = r.d.id()
	f.CreatedAt = time.Now()
	r.d.st.flags = append(r.d.st.flags, *f)
	return nil
}

func (r *flags) List(ctx context.Context, offset, limit int) ([]models.ComplianceFlag, int64, error) {
	unlock, err := r.d.lock(ctx, "flags.List")
	if err != nil {
		return nil, 0, err
	}
	defer unlock()
	out := make([]models.ComplianceFlag, len(r.d.st.flags))
	for i, f := range r.d.st.flags {
		out[len(out)-1-i] = f
	}
	return page(out, offset, limit), int64(len(out)), nil
}

type transactions struct{ d *db }

func (r *transactions) insert(t *models.Transaction) {
	t.ID = r.d.id()
	t.CreatedAt = time.Now()
	r.d.st.transactions = append(r.d.st.transactions, *t)
}

func (r *transactions) Create(ctx context.Context, t *models.Transaction) error {
	unlock, err := r.d.lock(ctx, "transactions.Create")
	if err != nil {
		return err
	}
	defer unlock()
	if t.PaymentReference != nil && r.hasReference(*t.PaymentReference) {
		return repositories.ErrDuplicateKey
	}
	r.insert(t)
	return nil
}

func (r *transactions) CreateOnce(ctx context.Context, t *models.Transaction) (bool, error) {
	unlock, err := r.d.lock(ctx, "transactions.CreateOnce")
	if err != nil {
		return false, err
	}
	defer unlock()
	if t.PaymentReference != nil && r.hasReference(*t.PaymentReference) {
		return false, nil
	}
	r.insert(t)
	return true, nil
}

func (r *transactions) hasReference(ref string) bool {
	for _, existing := range r.d.st.transactions {
		if existing.PaymentReference != nil && *existing.PaymentReference == ref {
			return true
		}
	}
	return false
}

func (r *transactions) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Transaction, int64, error) {
	unlock, err := r.d.lock(ctx, "transactions.ListByUser")
	if err != nil {
		return nil, 0, err
	}
	defer unlock()
	var out []models.Transaction
	for i := len(r.d.st.transactions) - 1; i >= 0; i-- {
		if t := r.d.st.transactions[i]; t.UserID == userID {
			out = append(out, t)
		}
	}
	return page(out, offset, limit), int64(len(out)), nil
}

// AllTransactions returns the ledger in insertion order.
func (s *Store) AllTransactions() []models.Transaction {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]models.Transaction(nil), s.db.st.transactions...)
}

// AllFlags returns the compliance audit trail in insertion order.
func (s *Store) AllFlags() []models.ComplianceFlag {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]models.ComplianceFlag(nil), s.db.st.flags...)
}

type catalog struct{ d *db }

func (r *catalog) CreditPackage(ctx context.Context, id uint) (*models.CreditPackage, error) {
	unlock, err := r.d.lock(ctx, "catalog.CreditPackage")
	if err != nil {
		return nil, err
	}
	defer unlock()
	p, ok := r.d.st.creditPkgs[id]
	if !ok || !p.IsActive {
		return nil, appErrors.ErrPackageNotFound
	}
	return &p, nil
}

func (r *catalog) ExtraPackage(ctx context.Context, id uint) (*models.ExtraPackage, error) {
	unlock, err := r.d.lock(ctx, "catalog.ExtraPackage")
	if err != nil {
		return nil, err
	}
	defer unlock()
	p, ok := r.d.st.extraPkgs[id]
	if !ok || !p.IsActive {
		return nil, appErrors.ErrPackageNotFound
	}
	return &p, nil
}

func (r *catalog) AdPackage(ctx context.Context, id uint) (*models.AdPackage, error) {
	unlock, err := r.d.lock(ctx, "catalog.AdPackage")
	if err != nil {
		return nil, err
	}
	defer unlock()
	p, ok := r.d.st.adPkgs[id]
	if !ok || !p.IsActive {
		return nil, appErrors.ErrPackageNotFound
	}
	return &p, nil
}

func (r *catalog) Active(ctx context.Context) (*models.Catalog, error) {
	unlock, err := r.d.lock(ctx, "catalog.Active")
	if err != nil {
		return nil, err
	}
	defer unlock()
	c := &models.Catalog{}
	for _, p := range r.d.st.creditPkgs {
		if p.IsActive {
			c.Credits = append(c.Credits, p)
		}
	}
	for _, p := range r.d.st.extraPkgs {
		if p.IsActive {
			c.Extras = append(c.Extras, p)
		}
	}
	for _, p := range r.d.st.adPkgs {
		if p.IsActive {
			c.Ads = append(c.Ads, p)
		}
	}
	sort.Slice(c.Credits, func(i, j int) bool { return c.Credits[i].ID < c.Credits[j].ID })
	sort.Slice(c.Extras, func(i, j int) bool { return c.Extras[i].ID < c.Extras[j].ID })
	sort.Slice(c.Ads, func(i, j int) bool { return c.Ads[i].ID < c.Ads[j].ID })
	return c, nil
}

func (r *catalog) SaveCreditPackage(ctx context.Context, p *models.CreditPackage) error {
	unlock, err := r.d.lock(ctx, "catalog.SaveCreditPackage")
	if err != nil {
		return err
	}
	defer unlock()
	if p.ID == 0 {
		p.ID = r.d.id()
	}
	r.d.st.creditPkgs[p.ID] = *p
	return nil
}

func (r *catalog) SaveExtraPackage(ctx context.Context, p *models.ExtraPackage) error {
	unlock, err := r.d.lock(ctx, "catalog.SaveExtraPackage")
	if err != nil {
		return err
	}
	defer unlock()
	if p.ID == 0 {
		p.ID = r.d.id()
	}
	r.d.st.extraPkgs[p.ID] = *p
	return nil
}

func (r *catalog) SaveAdPackage(ctx context.Context, p *models.AdPackage) error {
	unlock, err := r.d.lock(ctx, "catalog.SaveAdPackage")
	if err != nil {
		return err
	}
	defer unlock()
	if p.ID == 0 {
		p.ID = r.d.id()
	}
	r.d.st.adPkgs[p.ID] = *p
	return nil
}

type ads struct{ d *db }

func (r *ads) Create(ctx context.Context, a *models.Ad) error {
	unlock, err := r.d.lock(ctx, "ads.Create")
	if err != nil {
		return err
	}
	defer unlock()
	now := time.Now()
	a.ID = r.d.id()
	a.CreatedAt, a.UpdatedAt = now, now
	r.d.st.ads[a.ID] = *a
	return nil
}

func (r *ads) GetByID(ctx context.Context, id uint) (*models.Ad, error) {
	unlock, err := r.d.lock(ctx, "ads.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	a, ok := r.d.st.ads[id]
	if !ok {
		return nil, appErrors.ErrAdNotFound
	}
	return &a, nil
}

func (r *ads) GetForUpdate(ctx context.Context, id uint) (*models.Ad, error) {
	return r.GetByID(ctx, id)
}

func (r *ads) SaveSchedule(ctx context.Context, a *models.Ad) error {
	unlock, err := r.d.lock(ctx, "ads.SaveSchedule")
	if err != nil {
		return err
	}
	defer unlock()
	cur, ok := r.d.st.ads[a.ID]
	if !ok {
		return appErrors.ErrAdNotFound
	}
	cur.Status, cur.StartsAt, cur.EndsAt = a.Status, a.StartsAt, a.EndsAt
	cur.UpdatedAt = time.Now()
	r.d.st.ads[a.ID] = cur
	return nil
}

func (r *ads) ListActive(ctx context.Context, placement string, now time.Time) ([]models.Ad, error) {
	unlock, err := r.d.lock(ctx, "ads.ListActive")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var out []models.Ad
	for _, a := range r.d.st.ads {
		if a.LiveAt(now) && (placement == "" || a.Placement == placement) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type settings struct{ d *db }

func (r *settings) Get(ctx context.Context) (*models.PlatformSettings, error) {
	unlock, err := r.d.lock(ctx, "settings.Get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	s := r.d.st.settings
	return &s, nil
}

func (r *settings) SetTestingMode(ctx context.Context, enabled bool) error {
	unlock, err := r.d.lock(ctx, "settings.SetTestingMode")
	if err != nil {
		return err
	}
	defer unlock()
	r.d.st.settings.TestingMode = enabled
	r.d.st.settings.UpdatedAt = time.Now()
	return nil
}
