package services

import (
	"context"
	"errors"
	"sync"

	"github.com/WesleyKlop/journali-api/internal/auth"
	"github.com/WesleyKlop/journali-api/internal/model"
	"github.com/WesleyKlop/journali-api/internal/store"
)

// UserService handles registration, login and self-service account changes.
type UserService struct {
	store  store.Store
	hasher *auth.PasswordHasher
	tokens *auth.TokenService

	// decoy is compared against when a username is unknown so that login
	// takes the same time whether or not the account exists.
	decoyOnce sync.Once
	decoy     string
}

func NewUserService(s store.Store, hasher *auth.PasswordHasher, tokens *auth.TokenService) *UserService {
	return &UserService{store: s, hasher: hasher, tokens: tokens}
}

// UserUpdate carries the fields a user may change on their own account.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Register creates a user. A taken username is model.ErrConflict.
func (s *UserService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if err := model.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, err
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return s.store.Users().Create(ctx, &model.User{Username: username, PasswordHash: digest})
}

// Login verifies the credentials and issues a token for the user. Unknown
// users and wrong passwords are both model.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (auth.Token, error) {
	u, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.hasher.Verify(password, s.decoyDigest())
			return auth.Token{}, model.ErrUnauthorized
		}
		return auth.Token{}, err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return auth.Token{}, model.ErrUnauthorized
	}
	return s.tokens.Issue(u.ID)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// UpdateSelf changes the caller's username and/or password.
func (s *UserService) UpdateSelf(ctx context.Context, caller string, upd UserUpdate) (*model.User, error) {
	var patch model.UserPatch
	if upd.Username != nil {
		if err := model.ValidateUsername(*upd.Username); err != nil {
			return nil, err
		}
		patch.Username = upd.Username
	}
	if upd.Password != nil {
		if err := model.ValidatePassword(*upd.Password); err != nil {
			return nil, err
		}
		digest, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &digest
	}
	return s.store.Users().Update(ctx, caller, patch)
}

func (s *UserService) decoyDigest() string {
	s.decoyOnce.Do(func() {
		s.decoy, _ = s.hasher.Hash("journali-decoy-password")
	})
	return s.decoy
}
