package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"
	"pronat/internal/repositories"
)

type properties struct{ d *db }

func (r *properties) Create(ctx context.Context, p *models.Property) error {
	unlock, err := r.d.lock(ctx, "properties.Create")
	if err != nil {
		return err
	}
	defer unlock()
	now := time.Now()
	p.ID = r.d.id()
	p.CreatedAt, p.UpdatedAt = now, now
	r.d.st.properties[p.ID] = *p
	return nil
}

func (r *properties) GetByID(ctx context.Context, id uint) (*models.Property, error) {
	unlock, err := r.d.lock(ctx, "properties.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	p, ok := r.d.st.properties[id]
	if !ok {
		return nil, appErrors.ErrPropertyNotFound
	}
	return &p, nil
}

// GetForUpdate relies on transactions being serialised.
func (r *properties) GetForUpdate(ctx context.Context, id uint) (*models.Property, error) {
	return r.GetByID(ctx, id)
}

func (r *properties) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Property, int64, error) {
	unlock, err := r.d.lock(ctx, "properties.ListByUser")
	if err != nil {
		return nil, 0, err
	}
	defer unlock()
	var out []models.Property
	for _, p := range r.d.st.properties {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, offset, limit), int64(len(out)), nil
}

func (r *properties) Search(ctx context.Context, f repositories.PropertyFilter, now time.Time) ([]models.Property, int64, error) {
	unlock, err := r.d.lock(ctx, "properties.Search")
	if err != nil {
		return nil, 0, err
	}
	defer unlock()
	var out []models.Property
	for _, p := range r.d.st.properties {
		if p.Status != models.PropertyStatusActive || p.ExpiresAt == nil || !p.ExpiresAt.After(now) {
			continue
		}
		if f.City != "" && !strings.EqualFold(p.City, f.City) {
			continue
		}
		if f.ListingType != "" && p.ListingType != f.ListingType {
			continue
		}
		if f.PropertyType != "" && p.PropertyType != f.PropertyType {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if p.Bedrooms < f.MinBedrooms {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FeaturedActive(now) != b.FeaturedActive(now) {
			return a.FeaturedActive(now)
		}
		if a.UrgentActive(now) != b.UrgentActive(now) {
			return a.UrgentActive(now)
		}
		switch {
		case a.LastBoostedAt != nil && b.LastBoostedAt == nil:
			return true
		case a.LastBoostedAt == nil && b.LastBoostedAt != nil:
			return false
		case a.LastBoostedAt != nil && !a.LastBoostedAt.Equal(*b.LastBoostedAt):
			return a.LastBoostedAt.After(*b.LastBoostedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return page(out, f.Offset, f.Limit), int64(len(out)), nil
}

func (r *properties) Activate(ctx context.Context, id uint, expiresAt time.Time) (bool, error) {
	unlock, err := r.d.lock(ctx, "properties.Activate")
	if err != nil {
		return false, err
	}
	defer unlock()
	p, ok := r.d.st.properties[id]
	if !ok || p.Status != models.PropertyStatusDraft {
		return false, nil
	}
	p.Status = models.PropertyStatusActive
	p.ExpiresAt = &expiresAt
	r.d.st.properties[id] = p
	return true, nil
}

func (r *properties) TransitionStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	unlock, err := r.d.lock(ctx, "properties.TransitionStatus")
	if err != nil {
		return false, err
	}
	defer unlock()
	p, ok := r.d.st.properties[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	r.d.st.properties[id] = p
	return true, nil
}

func (r *properties) mutate(ctx context.Context, op string, id uint, fn func(*models.Property)) error {
	unlock, err := r.d.lock(ctx, op)
	if err != nil {
		return err
	}
	defer unlock()
	p, ok := r.d.st.properties[id]
	if !ok {
		return appErrors.ErrPropertyNotFound
	}
	fn(&p)
	p.UpdatedAt = time.Now()
	r.d.st.properties[id] = p
	return nil
}

func (r *properties) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.mutate(ctx, "properties.UpdateStatus", id, func(p *models.Property) { p.Status = status })
}

func (r *properties) SaveVisibility(ctx context.Context, v *models.Property) error {
	return r.mutate(ctx, "properties.SaveVisibility", v.ID, func(p *models.Property) {
		p.IsFeatured, p.FeaturedUntil = v.IsFeatured, v.FeaturedUntil
		p.IsUrgent, p.UrgentUntil = v.IsUrgent, v.UrgentUntil
		p.LastBoostedAt = v.LastBoostedAt
	})
}

func (r *properties) IncrementCounter(ctx context.Context, id uint, column string) error {
	unlock, err := r.d.lock(ctx, "properties.IncrementCounter")
	if err != nil {
		return err
	}
	defer unlock()
	p, ok := r.d.st.properties[id]
	if !ok || p.Status != models.PropertyStatusActive {
		return appErrors.ErrPropertyNotFound
	}
	switch column {
	case repositories.CounterViews:
		p.ViewsCount++
	case repositories.CounterContacts:
		p.ContactsCount++
	}
	r.d.st.properties[id] = p
	return nil
}

func (r *properties) AppendImages(ctx context.Context, id uint, urls []string) error {
	return r.mutate(ctx, "properties.AppendImages", id, func(p *models.Property) {
		imgs := make([]string, 0, len(p.Images)+len(urls))
		imgs = append(imgs, p.Images...)
		p.Images = append(imgs, urls...)
	})
}
