// Package identity authenticates and registers storefront users.
package identity

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type demoAccount struct {
	password string
	user     domain.User
}

// Built-in accounts accepted without a stored record when demo accounts are on.
var demoAccounts = map[string]demoAccount{
	"admin@demo.com": {password: "admin123", user: domain.User{ID: 1, Name: "Admin User", Email: "admin@demo.com", Role: domain.RoleAdmin}},
	"user@demo.com":  {password: "user123", user: domain.User{ID: 2, Name: "Demo User", Email: "user@demo.com", Role: domain.RoleUser}},
}

// Service is the identity store.
type Service struct {
	store    *db.Gateway
	demo     bool
	hashCost int
	ids      *utils.IDSequence
}

// Option configures a Service.
type Option func(*Service)

// WithDemoAccounts toggles the built-in demo credentials.
func WithDemoAccounts(enabled bool) Option {
	return func(s *Service) { s.demo = enabled }
}

// WithHashCost sets the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// NewService returns an identity store with demo accounts enabled.
func NewService(store *db.Gateway, opts ...Option) *Service {
	s := &Service{
		store:    store,
		demo:     true,
		hashCost: bcrypt.DefaultCost,
		ids:      utils.NewIDSequence(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login returns the user matching email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if s.demo {
		if acct, ok := demoAccounts[email]; ok && acct.password == password {
			user := acct.user
			return &user, nil
		}
	}
	conn, err := s.store.Open(ctx)
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := conn.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if len(users) == 0 {
		return nil, domain.ErrInvalidCredentials
	}
	user := users[0]
	// Compare provided password with stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return &user, nil
}

// Register creates a user with role "user". Stored users only are checked
// for a duplicate email.
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	// Hash outside the transaction; the store holds a single connection.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	conn, err := s.store.Open(ctx)
	if err != nil {
		return nil, err
	}
	user := domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	err = conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrEmailAlreadyExists
		}
		user.ID = s.ids.Next()
		return tx.Create(&user).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("registering user: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")
	return &user, nil
}
