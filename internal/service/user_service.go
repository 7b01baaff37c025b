package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Please enter a correct username and password."

// dummyHash keeps unknown-username logins as slow as wrong-password ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("yatube-timing-equaliser"), bcrypt.DefaultCost)

type UserService struct {
	userRepo repository.UserRepository
}

type SignupInput struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Password        string
	PasswordConfirm string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, user.ID)
}

// Signup validates the form, hashes the password and stores the new user.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	errs := validation.Errors{}
	errs.Check("username", validation.ValidateUsername(in.Username))
	if in.Email != "" {
		errs.Check("email", validation.ValidateEmail(in.Email))
	}
	errs.Check("first_name", validation.MaxLength(in.FirstName, 150))
	errs.Check("last_name", validation.MaxLength(in.LastName, 150))
	errs.Check("password", validation.ValidatePassword(in.Password))
	if in.PasswordConfirm != in.Password {
		errs.Add("password_confirm", "The two password fields didn't match.")
	}
	if _, ok := errs["username"]; !ok {
		if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
			errs.Add("username", "A user with that username already exists.")
		} else if !models.IsNotFound(err) {
			return nil, err
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.ErrorCode(err) == models.CodeConflict {
			return nil, models.NewFieldValidationError(map[string]string{
				"username": "A user with that username already exists.",
			})
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair. Failures are UNAUTHORIZED with one message.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !models.IsNotFound(err) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}
	return user, nil
}
