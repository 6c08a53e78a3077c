package memstore

import (
	"context"
	"sort"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"
	"pronat/internal/repositories"
)

type users struct{ d *db }

func (r *users) Create(ctx context.Context, u *models.User) error {
	unlock, err := r.d.lock(ctx, "users.Create")
	if err != nil {
		return err
	}
	defer unlock()
	for _, existing := range r.d.st.users {
		if existing.Email == u.Email {
			return repositories.ErrDuplicateKey
		}
		if u.Phone != nil && existing.Phone != nil && *existing.Phone == *u.Phone {
			return repositories.ErrDuplicateKey
		}
	}
	now := time.Now()
	u.ID = r.d.id()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	if u.TokenVersion == 0 {
		u.TokenVersion = 1
	}
	r.d.st.users[u.ID] = *u
	return nil
}

func (r *users) find(pred func(models.User) bool) (*models.User, error) {
	for _, u := range r.d.st.users {
		if pred(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, appErrors.ErrUserNotFound
}

func (r *users) GetByID(ctx context.Context, id uint) (*models.User, error) {
	unlock, err := r.d.lock(ctx, "users.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	u, ok := r.d.st.users[id]
	if !ok {
		return nil, appErrors.ErrUserNotFound
	}
	return &u, nil
}

func (r *users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	unlock, err := r.d.lock(ctx, "users.GetByEmail")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *users) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	unlock, err := r.d.lock(ctx, "users.GetByPhone")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.find(func(u models.User) bool { return u.Phone != nil && *u.Phone == phone })
}

func (r *users) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	unlock, err := r.d.lock(ctx, "users.List")
	if err != nil {
		return nil, 0, err
	}
	defer unlock()
	all := make([]models.User, 0, len(r.d.st.users))
	for _, u := range r.d.st.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (r *users) mutate(ctx context.Context, op string, id uint, fn func(*models.User)) error {
	unlock, err := r.d.lock(ctx, op)
	if err != nil {
		return err
	}
	defer unlock()
	u, ok := r.d.st.users[id]
	if !ok {
		return appErrors.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.d.st.users[id] = u
	return nil
}

func (r *users) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.mutate(ctx, "users.UpdateStatus", id, func(u *models.User) { u.Status = status })
}

func (r *users) UpdateProfile(ctx context.Context, id uint, fullName string, phone *string) error {
	unlock, err := r.d.lock(ctx, "users.UpdateProfile")
	if err != nil {
		return err
	}
	defer unlock()
	u, ok := r.d.st.users[id]
	if !ok {
		return appErrors.ErrUserNotFound
	}
	if phone != nil {
		for _, other := range r.d.st.users {
			if other.ID != id && other.Phone != nil && *other.Phone == *phone {
				return repositories.ErrDuplicateKey
			}
		}
	}
	u.FullName, u.Phone = fullName, phone
	r.d.st.users[id] = u
	return nil
}

func (r *users) SetPassword(ctx context.Context, id uint, hash string) error {
	return r.mutate(ctx, "users.SetPassword", id, func(u *models.User) {
		u.Password = hash
		u.HasPassword = true
		u.TokenVersion++
	})
}

func (r *users) IncrementTokenVersion(ctx context.Context, id uint) error {
	return r.mutate(ctx, "users.IncrementTokenVersion", id, func(u *models.User) { u.TokenVersion++ })
}

func (r *users) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return r.mutate(ctx, "users.TouchLogin", id, func(u *models.User) { u.LastLoginAt = &at })
}

func (r *users) DecrementCredit(ctx context.Context, id uint) (bool, error) {
	unlock, err := r.d.lock(ctx, "users.DecrementCredit")
	if err != nil {
		return false, err
	}
	defer unlock()
	u, ok := r.d.st.users[id]
	if !ok || u.CreditsRemaining <= 0 {
		return false, nil
	}
	u.CreditsRemaining--
	r.d.st.users[id] = u
	return true, nil
}

func (r *users) AddCredits(ctx context.Context, id uint, n int) error {
	return r.mutate(ctx, "users.AddCredits", id, func(u *models.User) { u.CreditsRemaining += n })
}
