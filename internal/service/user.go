package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sharebnb/internal/model"
	"sharebnb/internal/queue"
	"sharebnb/internal/repository"
	"sharebnb/internal/validation"
)

// UserService handles business logic for user operations
type UserService struct {
	repo            repository.UserRepository
	hasher          PasswordHasher
	publisher       queue.Publisher
	validate        *validation.Validator
	defaultImageURL string
}

// NewUserService wires the user service. publisher may be nil when no media
// cleanup worker is running.
func NewUserService(repo repository.UserRepository, hasher PasswordHasher, publisher queue.Publisher, defaultImageURL string) *UserService {
	return &UserService{
		repo:            repo,
		hasher:          hasher,
		publisher:       publisher,
		validate:        validation.New(),
		defaultImageURL: defaultImageURL,
	}
}

// Signup validates the request, hashes the password and creates the user.
// The plaintext password is not kept anywhere.
func (s *UserService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		imageURL = s.defaultImageURL
	}

	user := &model.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  hashed,
		ImageURL:  imageURL,
		Location:  req.Location,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUsernameTaken) || errors.Is(err, model.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user with username and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, req.Username, req.Password)
}

// authenticate never reveals whether the username or the password was wrong.
func (s *UserService) authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.hasher.Compare(user.Password, password); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}

// GetByUsername retrieves a user profile.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// List returns all users, or those whose username contains query.
func (s *UserService) List(ctx context.Context, query string) ([]model.User, error) {
	return s.repo.List(ctx, strings.TrimSpace(query))
}

// Update edits the caller's profile after re-checking their current password.
func (s *UserService) Update(ctx context.Context, username string, req *model.UpdateUserRequest) (*model.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.authenticate(ctx, username, req.Password); err != nil {
		return nil, err
	}

	upd := model.UserUpdate{
		Bio:       req.Bio,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		ImageURL:  req.ImageURL,
		Location:  req.Location,
	}
	if upd.ImageURL != nil && strings.TrimSpace(*upd.ImageURL) == "" {
		def := s.defaultImageURL
		upd.ImageURL = &def
	}

	user, err := s.repo.Update(ctx, username, upd)
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) || errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// SetAvatar points the user's image at a freshly uploaded object. The
// previously uploaded avatar, if any, is queued for deletion. If the user
// cannot be updated the new object is queued instead.
func (s *UserService) SetAvatar(ctx context.Context, username string, upload *model.UploadResult) (*model.User, error) {
	current, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		publishOrphans(ctx, s.publisher, queue.ReasonAvatarReplaced, []string{upload.Key})
		return nil, err
	}

	user, err := s.repo.Update(ctx, username, model.UserUpdate{
		ImageURL: &upload.URL,
		ImageKey: &upload.Key,
	})
	if err != nil {
		publishOrphans(ctx, s.publisher, queue.ReasonAvatarReplaced, []string{upload.Key})
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	if current.ImageKey != nil && *current.ImageKey != upload.Key {
		publishOrphans(ctx, s.publisher, queue.ReasonAvatarReplaced, []string{*current.ImageKey})
	}
	return user, nil
}

// Delete removes the user together with their listings and messages.
func (s *UserService) Delete(ctx context.Context, username string) error {
	keys, err := s.repo.Delete(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	publishOrphans(ctx, s.publisher, queue.ReasonUserDeleted, keys)
	return nil
}
