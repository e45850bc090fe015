package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Passwords PasswordHasher
	Cache     Cache
	CacheTTL  time.Duration
}

type Service struct {
	repo      Repository
	passwords PasswordHasher
	cache     Cache
	cacheTTL  time.Duration
	validate  *validator.Validate
	now       func() time.Time
}

func NewService(repo Repository) *Service {
	return NewServiceWithConfig(repo, Config{})
}

func NewServiceWithConfig(repo Repository, cfg Config) *Service {
	passwords := cfg.Passwords
	if passwords == nil {
		passwords = PlaintextPasswords{}
	}
	cache := cfg.Cache
	if cache == nil {
		cache = noopCache{}
	}

	return &Service{
		repo:      repo,
		passwords: passwords,
		cache:     cache,
		cacheTTL:  cfg.CacheTTL,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Register appends a new user. Email and mobile must be unused; a collision on
// either reports ErrDuplicateUser without saying which. An unknown referral
// code is dropped rather than failing the signup.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input = normalizeRegisterInput(input)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	password, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var result User
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		users, err := tx.List(ctx)
		if err != nil {
			return err
		}

		for _, existing := range users {
			if strings.EqualFold(existing.Email, input.Email) || existing.Mobile == input.Mobile {
				return ErrDuplicateUser
			}
		}

		now := s.now().UTC()
		id, err := generateUniqueUserID(users, now)
		if err != nil {
			return err
		}

		created := User{
			ID:           id,
			EasyID:       EasyID(input.Name, input.Mobile, input.Address),
			Name:         input.Name,
			Address:      input.Address,
			Mobile:       input.Mobile,
			Designation:  input.Designation,
			Email:        input.Email,
			Password:     password,
			CreatedAt:    now,
			ReferralCode: ReferralCode(input.Name, id),
		}
		if input.ReferralCode != "" {
			if _, ok := findByReferralCode(users, input.ReferralCode); ok {
				created.ReferredBy = input.ReferralCode
			}
		}

		if err := tx.Save(ctx, append(users, created)); err != nil {
			return err
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateCredentials matches identifier against the system id or the easy id.
func (s *Service) ValidateCredentials(ctx context.Context, identifier, password string) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, candidate := range users {
		if candidate.ID != identifier && candidate.EasyID != identifier {
			continue
		}
		if s.passwords.Matches(candidate.Password, password) {
			found := candidate
			return &found, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	if cached, ok := s.cache.GetByID(userID); ok {
		return cached, nil
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, candidate := range users {
		if candidate.ID == userID {
			found := candidate
			s.cache.SetByID(userID, &found, s.cacheTTL)
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *Service) FindByReferralCode(ctx context.Context, code string) (*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	found, ok := findByReferralCode(users, code)
	if !ok {
		return nil, ErrUserNotFound
	}
	return &found, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error) {
	update = normalizeProfileUpdate(update)
	if err := s.validate.Struct(update); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.mutate(ctx, userID, func(users []User, target *User) error {
		for _, other := range users {
			if other.ID == target.ID {
				continue
			}
			if update.Email != nil && strings.EqualFold(other.Email, *update.Email) {
				return ErrDuplicateUser
			}
			if update.Mobile != nil && other.Mobile == *update.Mobile {
				return ErrDuplicateUser
			}
		}

		if update.Name != nil {
			target.Name = *update.Name
		}
		if update.Address != nil {
			target.Address = *update.Address
		}
		if update.Mobile != nil {
			target.Mobile = *update.Mobile
		}
		if update.Designation != nil {
			target.Designation = *update.Designation
		}
		if update.Email != nil {
			target.Email = *update.Email
		}
		return nil
	})
}

func (s *Service) UpdateSubscription(ctx context.Context, userID string, subscription Subscription) (*User, error) {
	return s.mutate(ctx, userID, func(_ []User, target *User) error {
		sub := subscription
		target.Subscription = &sub
		return nil
	})
}

// EnsureUser appends u unless a user with the same id already exists.
func (s *Service) EnsureUser(ctx context.Context, u User) (bool, error) {
	password, err := s.passwords.Hash(u.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	created := false
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		users, err := tx.List(ctx)
		if err != nil {
			return err
		}
		for _, existing := range users {
			if existing.ID == u.ID {
				return nil
			}
		}
		u.Password = password
		if u.CreatedAt.IsZero() {
			u.CreatedAt = s.now().UTC()
		}
		if err := tx.Save(ctx, append(users, u)); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (s *Service) mutate(ctx context.Context, userID string, fn func(users []User, target *User) error) (*User, error) {
	var result User
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		users, err := tx.List(ctx)
		if err != nil {
			return err
		}

		idx := -1
		for i := range users {
			if users[i].ID == userID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return ErrUserNotFound
		}

		if err := fn(users, &users[idx]); err != nil {
			return err
		}
		if err := tx.Save(ctx, users); err != nil {
			return err
		}
		result = users[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.DeleteByID(userID)
	return &result, nil
}

func generateUniqueUserID(users []User, now time.Time) (string, error) {
	for i := 0; i < userIDAttempts; i++ {
		id, err := generateUserID(now)
		if err != nil {
			return "", err
		}
		taken := false
		for _, existing := range users {
			if existing.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrIDGenerationFailed
}

func findByReferralCode(users []User, code string) (User, bool) {
	code = normalizeCode(code)
	if code == "" {
		return User{}, false
	}
	for _, candidate := range users {
		if normalizeCode(candidate.ReferralCode) == code {
			return candidate, true
		}
	}
	return User{}, false
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeRegisterInput(input RegisterInput) RegisterInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	input.Mobile = strings.TrimSpace(input.Mobile)
	input.Designation = strings.TrimSpace(input.Designation)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.ReferralCode = normalizeCode(input.ReferralCode)
	return input
}

func normalizeProfileUpdate(update ProfileUpdate) ProfileUpdate {
	trim := func(value *string) *string {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		return &trimmed
	}
	update.Name = trim(update.Name)
	update.Address = trim(update.Address)
	update.Mobile = trim(update.Mobile)
	update.Designation = trim(update.Designation)
	update.Email = trim(update.Email)
	if update.Email != nil {
		lowered := strings.ToLower(*update.Email)
		update.Email = &lowered
	}
	return update
}
