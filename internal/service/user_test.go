package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"sharebnb/internal/model"
	"sharebnb/internal/queue"
)

// =============================================================================
// MOCKS
// =============================================================================

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	listFn          func(ctx context.Context, query string) ([]model.User, error)
	updateFn        func(ctx context.Context, username string, upd model.UserUpdate) (*model.User, error)
	deleteFn        func(ctx context.Context, username string) ([]string, error)

	createCalls []*model.User
	updateCalls []model.UserUpdate
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context, query string) ([]model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx, query)
	}
	return []model.User{}, nil
}

func (m *mockUserRepository) Update(ctx context.Context, username string, upd model.UserUpdate) (*model.User, error) {
	m.updateCalls = append(m.updateCalls, upd)
	if m.updateFn != nil {
		return m.updateFn(ctx, username, upd)
	}
	return &model.User{Username: username}, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, username string) ([]string, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, username)
	}
	return nil, nil
}

// mockPublisher records published media events.
type mockPublisher struct {
	events []queue.MediaEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.MediaEvent) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.events = append(m.events, event)
	return "1-0", nil
}

func testHasher() PasswordHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

func validSignup() *model.SignupRequest {
	return &model.SignupRequest{
		Username:  "ana",
		FirstName: "Ana",
		LastName:  "Lopez",
		Email:     "a@x.com",
		Password:  "secret1",
	}
}

// =============================================================================
// SIGNUP TESTS
// =============================================================================

func TestUserService_Signup_Success(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, testHasher(), nil, "/static/default.png")

	req := validSignup()
	user, err := svc.Signup(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if user.Username != "ana" {
		t.Errorf("username = %q, want %q", user.Username, "ana")
	}
	if user.Password == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret1")); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}
	if user.ImageURL != "/static/default.png" {
		t.Errorf("image_url = %q, want default placeholder", user.ImageURL)
	}
	if user.IsAdmin {
		t.Error("new users must not be admins")
	}
	if len(mockRepo.createCalls) != 1 {
		t.Errorf("Create called %d times, want 1", len(mockRepo.createCalls))
	}
}

func TestUserService_Signup_ValidationFailsBeforeStore(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, testHasher(), nil, "")

	req := validSignup()
	req.Email = "not-an-email"
	req.Password = "123"

	_, err := svc.Signup(context.Background(), req)

	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *model.ValidationError", err)
	}
	if len(ve.Fields) != 2 {
		t.Errorf("got %d field errors, want 2: %v", len(ve.Fields), ve.Fields)
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create should not be called when validation fails")
	}
}

func TestUserService_Signup_Conflicts(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
	}{
		{"duplicate username", model.ErrUsernameTaken},
		{"duplicate email", model.ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{
				createFn: func(ctx context.Context, user *model.User) error {
					return tt.repoErr
				},
			}
			svc := NewUserService(mockRepo, testHasher(), nil, "")

			user, err := svc.Signup(context.Background(), validSignup())
			if !errors.Is(err, tt.repoErr) {
				t.Errorf("error = %v, want %v", err, tt.repoErr)
			}
			if user != nil {
				t.Error("user should be nil when signup fails")
			}
		})
	}
}

func TestUserService_Signup_CreateError(t *testing.T) {
	dbError := errors.New("insert failed")
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			return dbError
		},
	}
	svc := NewUserService(mockRepo, testHasher(), nil, "")

	_, err := svc.Signup(context.Background(), validSignup())
	if !errors.Is(err, dbError) {
		t.Errorf("error should wrap create error")
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestUserService_Login(t *testing.T) {
	validPassword := "correctpassword"
	validHash, _ := bcrypt.GenerateFromPassword([]byte(validPassword), bcrypt.MinCost)

	testUser := &model.User{
		Username: "testuser",
		Password: string(validHash),
	}

	tests := []struct {
		name          string
		username      string
		password      string
		mockGetByUser func(ctx context.Context, username string) (*model.User, error)
		wantErr       error
		wantUser      bool
	}{
		{
			name:     "successful login",
			username: "testuser",
			password: validPassword,
			mockGetByUser: func(ctx context.Context, username string) (*model.User, error) {
				return testUser, nil
			},
			wantUser: true,
		},
		{
			name:     "user not found",
			username: "nonexistent",
			password: "anypassword",
			mockGetByUser: func(ctx context.Context, username string) (*model.User, error) {
				return nil, model.ErrUserNotFound
			},
			wantErr: model.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "testuser",
			password: "wrong",
			mockGetByUser: func(ctx context.Context, username string) (*model.User, error) {
				return testUser, nil
			},
			wantErr: model.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{getByUsernameFn: tt.mockGetByUser}
			svc := NewUserService(mockRepo, testHasher(), nil, "")

			user, err := svc.Login(context.Background(), &model.LoginRequest{
				Username: tt.username,
				Password: tt.password,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantUser && user == nil {
				t.Error("expected user, got nil")
			}
			if !tt.wantUser && user != nil {
				t.Error("expected nil user")
			}
		})
	}
}

func TestUserService_Login_DatabaseErrorIsNotCredentialFailure(t *testing.T) {
	dbError := errors.New("connection timeout")
	mockRepo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return nil, dbError
		},
	}
	svc := NewUserService(mockRepo, testHasher(), nil, "")

	_, err := svc.Login(context.Background(), &model.LoginRequest{Username: "ana", Password: "secret1"})
	if !errors.Is(err, dbError) {
		t.Errorf("error = %v, want wrapped %v", err, dbError)
	}
	if errors.Is(err, model.ErrInvalidCredentials) {
		t.Error("store failures must not look like bad credentials")
	}
}

// =============================================================================
// UPDATE / DELETE TESTS
// =============================================================================

func TestUserService_Update_RequiresCurrentPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	mockRepo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{Username: username, Password: string(hash)}, nil
		},
	}
	svc := NewUserService(mockRepo, testHasher(), nil, "")

	bio := "hello"
	_, err := svc.Update(context.Background(), "ana", &model.UpdateUserRequest{Bio: &bio, Password: "nope"})
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("error = %v, want %v", err, model.ErrInvalidCredentials)
	}
	if len(mockRepo.updateCalls) != 0 {
		t.Error("Update should not reach the store with a wrong password")
	}

	_, err = svc.Update(context.Background(), "ana", &model.UpdateUserRequest{Bio: &bio, Password: "secret1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mockRepo.updateCalls) != 1 || mockRepo.updateCalls[0].Bio == nil || *mockRepo.updateCalls[0].Bio != "hello" {
		t.Errorf("update calls = %+v, want one call setting bio", mockRepo.updateCalls)
	}
}

func TestUserService_Delete_PublishesOrphanedKeys(t *testing.T) {
	mockRepo := &mockUserRepository{
		deleteFn: func(ctx context.Context, username string) ([]string, error) {
			return []string{"listings/1.jpg", "", "avatars/a.jpg"}, nil
		},
	}
	pub := &mockPublisher{}
	svc := NewUserService(mockRepo, testHasher(), pub, "")

	if err := svc.Delete(context.Background(), "ana"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != queue.EventMediaOrphaned || ev.Reason != queue.ReasonUserDeleted {
		t.Errorf("event = %+v", ev)
	}
	if len(ev.Keys) != 2 {
		t.Errorf("keys = %v, want empty key dropped", ev.Keys)
	}
}

func TestUserService_Delete_PublishFailureDoesNotFailRequest(t *testing.T) {
	mockRepo := &mockUserRepository{
		deleteFn: func(ctx context.Context, username string) ([]string, error) {
			return []string{"avatars/a.jpg"}, nil
		},
	}
	pub := &mockPublisher{err: errors.New("redis down")}
	svc := NewUserService(mockRepo, testHasher(), pub, "")

	if err := svc.Delete(context.Background(), "ana"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUserService_SetAvatar_QueuesPreviousUpload(t *testing.T) {
	old := "avatars/old.jpg"
	mockRepo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{Username: username, ImageKey: &old}, nil
		},
	}
	pub := &mockPublisher{}
	svc := NewUserService(mockRepo, testHasher(), pub, "")

	_, err := svc.SetAvatar(context.Background(), "ana", &model.UploadResult{URL: "https://cdn/avatars/new.jpg", Key: "avatars/new.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mockRepo.updateCalls) != 1 || *mockRepo.updateCalls[0].ImageKey != "avatars/new.jpg" {
		t.Errorf("update calls = %+v", mockRepo.updateCalls)
	}
	if len(pub.events) != 1 || pub.events[0].Keys[0] != old {
		t.Errorf("events = %+v, want old avatar queued", pub.events)
	}
}

func TestUserService_SetAvatar_RejectedUploadIsQueued(t *testing.T) {
	upload := &model.UploadResult{URL: "https://cdn/avatars/new.jpg", Key: "avatars/new.jpg"}
	dbErr := errors.New("connection reset")

	tests := []struct {
		name    string
		repo    *mockUserRepository
		wantErr error
	}{
		{
			name:    "user gone before update",
			repo:    &mockUserRepository{},
			wantErr: model.ErrUserNotFound,
		},
		{
			name: "update fails",
			repo: &mockUserRepository{
				getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
					return &model.User{Username: username}, nil
				},
				updateFn: func(ctx context.Context, username string, upd model.UserUpdate) (*model.User, error) {
					return nil, dbErr
				},
			},
			wantErr: dbErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockPublisher{}
			svc := NewUserService(tt.repo, testHasher(), pub, "")

			_, err := svc.SetAvatar(context.Background(), "ana", upload)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(pub.events) != 1 || len(pub.events[0].Keys) != 1 || pub.events[0].Keys[0] != upload.Key {
				t.Fatalf("events = %+v, want new upload queued", pub.events)
			}
			if pub.events[0].Reason != queue.ReasonAvatarReplaced {
				t.Errorf("reason = %q", pub.events[0].Reason)
			}
		})
	}
}
