package user

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"uk.co.dudmesh.gatehouse/internal/i18n"
	"uk.co.dudmesh.gatehouse/internal/model"
	"uk.co.dudmesh.gatehouse/internal/service/token"
)

const activationTokenLength = 16

type Database interface {
	CreateUser(user *model.User, beforeCommit func() error) error
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id model.UserID) (*model.User, error)
	GetUserByActivationToken(token string) (*model.User, error)
	ActivateUser(id model.UserID) error
	UpdateUsername(id model.UserID, username string) error
	CountActiveUsers(exclude model.UserID) (int, error)
	ListActiveUsers(exclude model.UserID, limit int, offset int) ([]model.ListedUser, error)
}

type Mailer interface {
	SendAccountActivation(address string, token string) error
}

type service struct {
	db     Database
	mailer Mailer
}

func New(db Database, mailer Mailer) *service {
	return &service{db, mailer}
}

// Register validates the signup request, then persists the new inactive
// user and dispatches the activation email inside one transaction. A failed
// dispatch rolls the user row back, the caller never observes a user
// without a delivered activation path.
func (s *service) Register(params *model.RegisterUserParams) error {
	fieldErrors := validateRegistration(params)

	if _, taken := fieldErrors["email"]; !taken {
		if _, err := s.db.GetUserByEmail(params.Email); err == nil {
			fieldErrors["email"] = i18n.EmailInUse
		} else if !errors.Is(err, model.ErrorUserNotFound) {
			return fmt.Errorf("checking email: %w", err)
		}
	}

	if len(fieldErrors) > 0 {
		return &model.ValidationError{Errors: fieldErrors}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), 10)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	activationToken, err := token.RandomString(activationTokenLength)
	if err != nil {
		return fmt.Errorf("generating activation token: %w", err)
	}

	user := &model.User{
		ID:              model.CreateID(),
		CreatedAt:       time.Now().UTC(),
		Username:        params.Username,
		Email:           params.Email,
		Password:        string(hash),
		Inactive:        true,
		ActivationToken: &activationToken,
	}

	err = s.db.CreateUser(user, func() error {
		if err := s.mailer.SendAccountActivation(user.Email, activationToken); err != nil {
			return model.ErrorEmailDelivery
		}
		return nil
	})
	if err != nil {
		// the unique index arbitrates registrations that raced past the
		// pre-check
		if errors.Is(err, model.ErrorEmailInUse) {
			return &model.ValidationError{Errors: map[string]string{"email": i18n.EmailInUse}}
		}
		return err
	}

	return nil
}

// Activate consumes an activation token, marking the owner active and
// clearing the token in one update. Unknown or already consumed tokens fail
// with model.ErrorInvalidToken.
func (s *service) Activate(activationToken string) error {
	user, err := s.db.GetUserByActivationToken(activationToken)
	if err != nil {
		return err
	}
	return s.db.ActivateUser(user.ID)
}

// Get resolves an active user's public profile. Inactive users are
// indistinguishable from missing ones.
func (s *service) Get(id model.UserID) (*model.ListedUser, error) {
	user, err := s.db.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	return &model.ListedUser{ID: user.ID, Username: user.Username, Email: user.Email}, nil
}

// List pages through active users in insertion order, excluding the caller
// when a resolved identity is supplied. Page size is capped at 10.
func (s *service) List(page int, size int, caller model.UserID) (*model.UserPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 10 {
		size = 10
	}

	count, err := s.db.CountActiveUsers(caller)
	if err != nil {
		return nil, err
	}

	items, err := s.db.ListActiveUsers(caller, size, page*size)
	if err != nil {
		return nil, err
	}

	return &model.UserPage{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalPages: (count + size - 1) / size,
	}, nil
}

// Update overwrites a user's username. Only the owner may update, any
// other caller, resolved or not, is rejected before the store is touched.
func (s *service) Update(target model.UserID, caller model.UserID, params *model.UpdateUserParams) error {
	if caller == "" || caller != target {
		return model.ErrorForbidden
	}
	return s.db.UpdateUsername(target, params.Username)
}
