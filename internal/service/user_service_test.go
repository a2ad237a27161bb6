package service

import (
	"context"
	"testing"

	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/app"
	"github.com/notesphere/note-sync-service/pkg/code"
	"go.uber.org/zap"
)

func newTestUserService(users *mockUserRepo, registerEnabled bool) UserService {
	token := app.NewTokenManager(app.TokenConfig{SecretKey: "unit-test-secret"})
	return NewUserService(users, token, zap.NewNop(), &UserServiceConfig{RegisterIsEnable: registerEnabled})
}

func TestUserServiceRegisterAndLogin(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestUserService(users, true)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &dto.UserCreateRequest{
		Email:           "alice@example.com",
		Username:        "alice",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registered.UID == 0 {
		t.Error("uid must be assigned")
	}
	if registered.Token == "" {
		t.Error("register must issue a token")
	}

	// 密码以散列存储
	stored, _ := users.GetByUID(ctx, registered.UID)
	if stored.Password == "secret123" {
		t.Error("password must not be stored in plain text")
	}

	tests := []struct {
		name        string
		credentials string
		password    string
		wantErr     *code.Code
	}{
		{name: "login by email", credentials: "alice@example.com", password: "secret123"},
		{name: "login by username", credentials: "alice", password: "secret123"},
		{name: "wrong password", credentials: "alice", password: "nope", wantErr: code.ErrorUserLoginFailed},
		{name: "unknown user", credentials: "bob", password: "secret123", wantErr: code.ErrorUserLoginFailed},
		{name: "unknown email", credentials: "bob@example.com", password: "secret123", wantErr: code.ErrorUserLoginFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Login(ctx, &dto.UserLoginRequest{
				Credentials: tt.credentials,
				Password:    tt.password,
			}, "127.0.0.1")
			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("expected login failure")
				}
				if gotCode := mustCode(t, err); gotCode != tt.wantErr.Code() {
					t.Errorf("error code = %d, want %d", gotCode, tt.wantErr.Code())
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if got.UID != registered.UID {
				t.Errorf("uid = %d, want %d", got.UID, registered.UID)
			}
			if got.Token == "" {
				t.Error("login must issue a token")
			}
		})
	}
}

func TestUserServiceRegisterValidation(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestUserService(users, true)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &dto.UserCreateRequest{
		Email: "alice@example.com", Username: "alice",
		Password: "secret123", ConfirmPassword: "secret123",
	}, ""); err != nil {
		t.Fatalf("seed register error = %v", err)
	}

	tests := []struct {
		name    string
		params  *dto.UserCreateRequest
		wantErr *code.Code
	}{
		{
			name: "password mismatch",
			params: &dto.UserCreateRequest{
				Email: "bob@example.com", Username: "bob42",
				Password: "secret123", ConfirmPassword: "secret124",
			},
			wantErr: code.ErrorPasswordNotValid,
		},
		{
			name: "invalid email",
			params: &dto.UserCreateRequest{
				Email: "not-an-email", Username: "bob42",
				Password: "secret123", ConfirmPassword: "secret123",
			},
			wantErr: code.ErrorInvalidParams,
		},
		{
			name: "invalid username",
			params: &dto.UserCreateRequest{
				Email: "bob@example.com", Username: "b!",
				Password: "secret123", ConfirmPassword: "secret123",
			},
			wantErr: code.ErrorInvalidParams,
		},
		{
			name: "duplicated email",
			params: &dto.UserCreateRequest{
				Email: "alice@example.com", Username: "alice2",
				Password: "secret123", ConfirmPassword: "secret123",
			},
			wantErr: code.ErrorUserAlreadyExists,
		},
		{
			name: "duplicated username",
			params: &dto.UserCreateRequest{
				Email: "alice2@example.com", Username: "alice",
				Password: "secret123", ConfirmPassword: "secret123",
			},
			wantErr: code.ErrorUserAlreadyExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.params, "")
			if err == nil {
				t.Fatal("expected validation error")
			}
			if got := mustCode(t, err); got != tt.wantErr.Code() {
				t.Errorf("error code = %d, want %d", got, tt.wantErr.Code())
			}
		})
	}
}

func TestUserServiceRegisterClosed(t *testing.T) {
	svc := newTestUserService(newMockUserRepo(), false)

	_, err := svc.Register(context.Background(), &dto.UserCreateRequest{
		Email: "alice@example.com", Username: "alice",
		Password: "secret123", ConfirmPassword: "secret123",
	}, "")
	if err == nil {
		t.Fatal("expected registration to be rejected")
	}
	if got := mustCode(t, err); got != code.ErrorUserRegisterClosed.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorUserRegisterClosed.Code())
	}
}

func TestUserServiceChangePassword(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestUserService(users, true)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &dto.UserCreateRequest{
		Email: "alice@example.com", Username: "alice",
		Password: "secret123", ConfirmPassword: "secret123",
	}, "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// 旧密码错误被拒绝
	err = svc.ChangePassword(ctx, registered.UID, &dto.UserChangePasswordRequest{
		OldPassword: "wrong", Password: "newpass456", ConfirmPassword: "newpass456",
	})
	if err == nil {
		t.Fatal("expected rejection with a wrong old password")
	}
	if got := mustCode(t, err); got != code.ErrorPasswordNotValid.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorPasswordNotValid.Code())
	}

	if err := svc.ChangePassword(ctx, registered.UID, &dto.UserChangePasswordRequest{
		OldPassword: "secret123", Password: "newpass456", ConfirmPassword: "newpass456",
	}); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	// 旧密码失效，新密码可登录
	if _, err := svc.Login(ctx, &dto.UserLoginRequest{Credentials: "alice", Password: "secret123"}, ""); err == nil {
		t.Error("old password must stop working")
	}
	if _, err := svc.Login(ctx, &dto.UserLoginRequest{Credentials: "alice", Password: "newpass456"}, ""); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}
