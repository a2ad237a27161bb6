package service

import (
	"context"
	"strings"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/app"
	"github.com/notesphere/note-sync-service/pkg/code"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"github.com/notesphere/note-sync-service/pkg/util"
	"go.uber.org/zap"
)

// UserService 定义用户业务服务接口
type UserService interface {
	// Register 注册用户并签发令牌，注册关闭时拒绝
	Register(ctx context.Context, params *dto.UserCreateRequest, ip string) (*dto.UserDTO, error)

	// Login 用邮箱或用户名加密码登录，成功后签发令牌
	Login(ctx context.Context, params *dto.UserLoginRequest, ip string) (*dto.UserDTO, error)

	// ChangePassword 校验旧密码后更新密码
	ChangePassword(ctx context.Context, uid int64, params *dto.UserChangePasswordRequest) error

	// Get 获取用户信息
	Get(ctx context.Context, uid int64) (*dto.UserDTO, error)
}

type userService struct {
	userRepo domain.UserRepository
	token    app.TokenManager
	logger   *zap.Logger
	config   *UserServiceConfig
}

// NewUserService 创建 UserService 实例
func NewUserService(userRepo domain.UserRepository, token app.TokenManager, logger *zap.Logger, config *UserServiceConfig) UserService {
	if config == nil {
		config = &UserServiceConfig{RegisterIsEnable: true}
	}
	return &userService{
		userRepo: userRepo,
		token:    token,
		logger:   logger,
		config:   config,
	}
}

func userToDTO(u *domain.User, token string) *dto.UserDTO {
	if u == nil {
		return nil
	}
	return &dto.UserDTO{
		UID:       u.UID,
		Email:     u.Email,
		Username:  u.Username,
		Token:     token,
		Avatar:    u.Avatar,
		UpdatedAt: timex.Time(u.UpdatedAt),
		CreatedAt: timex.Time(u.CreatedAt),
	}
}

// Register 注册用户并签发令牌
func (s *userService) Register(ctx context.Context, params *dto.UserCreateRequest, ip string) (*dto.UserDTO, error) {
	if !s.config.RegisterIsEnable {
		return nil, code.ErrorUserRegisterClosed
	}
	if params.Password != params.ConfirmPassword {
		return nil, code.ErrorPasswordNotValid.WithDetails("passwords do not match")
	}
	if !util.IsValidEmail(params.Email) {
		return nil, code.ErrorInvalidParams.WithDetails("invalid email address")
	}
	if !util.IsValidUsername(params.Username) {
		return nil, code.ErrorInvalidParams.WithDetails("invalid username")
	}

	existing, err := s.userRepo.GetByEmail(ctx, params.Email)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if existing != nil {
		return nil, code.ErrorUserAlreadyExists
	}
	existing, err = s.userRepo.GetByUsername(ctx, params.Username)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if existing != nil {
		return nil, code.ErrorUserAlreadyExists
	}

	hash, err := util.GeneratePasswordHash(params.Password)
	if err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Email:    params.Email,
		Username: params.Username,
		Password: hash,
	})
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	token, err := s.token.Generate(user.UID, user.Username, ip)
	if err != nil {
		return nil, code.ErrorTokenGenerate.WithDetails(err.Error())
	}
	return userToDTO(user, token), nil
}

// Login 用邮箱或用户名加密码登录
func (s *userService) Login(ctx context.Context, params *dto.UserLoginRequest, ip string) (*dto.UserDTO, error) {
	var user *domain.User
	var err error
	if strings.Contains(params.Credentials, "@") {
		user, err = s.userRepo.GetByEmail(ctx, params.Credentials)
	} else {
		user, err = s.userRepo.GetByUsername(ctx, params.Credentials)
	}
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if user == nil || !user.IsActive() {
		return nil, code.ErrorUserLoginFailed
	}

	if !util.CheckPasswordHash(user.Password, params.Password) {
		return nil, code.ErrorUserLoginFailed
	}

	token, err := s.token.Generate(user.UID, user.Username, ip)
	if err != nil {
		return nil, code.ErrorTokenGenerate.WithDetails(err.Error())
	}
	return userToDTO(user, token), nil
}

// ChangePassword 校验旧密码后更新密码
func (s *userService) ChangePassword(ctx context.Context, uid int64, params *dto.UserChangePasswordRequest) error {
	if params.Password != params.ConfirmPassword {
		return code.ErrorPasswordNotValid.WithDetails("passwords do not match")
	}

	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	if user == nil {
		return code.ErrorUserNotFound
	}
	if !util.CheckPasswordHash(user.Password, params.OldPassword) {
		return code.ErrorPasswordNotValid
	}

	hash, err := util.GeneratePasswordHash(params.Password)
	if err != nil {
		return code.ErrorServerInternal.WithDetails(err.Error())
	}
	if err := s.userRepo.UpdatePassword(ctx, hash, uid); err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	return nil
}

// Get 获取用户信息
func (s *userService) Get(ctx context.Context, uid int64) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if user == nil {
		return nil, code.ErrorUserNotFound
	}
	return userToDTO(user, ""), nil
}

var _ UserService = (*userService)(nil)
