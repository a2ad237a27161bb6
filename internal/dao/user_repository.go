package dao

import (
	"context"
	"time"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/model"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"gorm.io/gorm"
)

// userRepository 实现 domain.UserRepository 接口
type userRepository struct {
	dao *Dao
}

// NewUserRepository 创建 UserRepository 实例
func NewUserRepository(dao *Dao) domain.UserRepository {
	return &userRepository{dao: dao}
}

func (r *userRepository) GetKey(uid int64) string {
	return ""
}

// user 获取用户表连接
func (r *userRepository) user() *gorm.DB {
	return r.dao.Use("User")
}

// toDomain 将数据库模型转换为领域模型
func (r *userRepository) toDomain(m *model.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		UID:       m.UID,
		Email:     m.Email,
		Username:  m.Username,
		Password:  m.Password,
		Salt:      m.Salt,
		Token:     m.Token,
		Avatar:    m.Avatar,
		IsDeleted: m.IsDeleted == 1,
		CreatedAt: time.Time(m.CreatedAt),
		UpdatedAt: time.Time(m.UpdatedAt),
		DeletedAt: time.Time(m.DeletedAt),
	}
}

// toModel 将领域模型转换为数据库模型
func (r *userRepository) toModel(user *domain.User) *model.User {
	if user == nil {
		return nil
	}
	m := &model.User{
		UID:       user.UID,
		Email:     user.Email,
		Username:  user.Username,
		Password:  user.Password,
		Salt:      user.Salt,
		Token:     user.Token,
		Avatar:    user.Avatar,
		CreatedAt: timex.Time(user.CreatedAt),
		UpdatedAt: timex.Time(user.UpdatedAt),
		DeletedAt: timex.Time(user.DeletedAt),
	}
	if user.IsDeleted {
		m.IsDeleted = 1
	}
	return m
}

func (r *userRepository) GetByUID(ctx context.Context, uid int64) (*domain.User, error) {
	var m model.User
	err := r.user().WithContext(ctx).
		Where("uid = ? AND is_deleted = 0", uid).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m model.User
	err := r.user().WithContext(ctx).
		Where("email = ? AND is_deleted = 0", email).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var m model.User
	err := r.user().WithContext(ctx).
		Where("username = ? AND is_deleted = 0", username).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	var result *domain.User
	err := r.dao.ExecuteWrite(ctx, 0, r, func(db *gorm.DB) error {
		m := r.toModel(user)
		m.CreatedAt = timex.Now()
		m.UpdatedAt = timex.Now()
		if err := r.user().WithContext(ctx).Create(m).Error; err != nil {
			return err
		}
		result = r.toDomain(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, password string, uid int64) error {
	return r.dao.ExecuteWrite(ctx, uid, r, func(db *gorm.DB) error {
		return r.user().WithContext(ctx).
			Model(&model.User{}).
			Where("uid = ?", uid).
			Updates(map[string]interface{}{
				"password":   password,
				"updated_at": timex.Now(),
			}).Error
	})
}

func (r *userRepository) GetAllUIDs(ctx context.Context) ([]int64, error) {
	var uids []int64
	err := r.user().WithContext(ctx).
		Model(&model.User{}).
		Where("is_deleted = 0").
		Pluck("uid", &uids).Error
	if err != nil {
		return nil, err
	}
	return uids, nil
}

// Ensure userRepository implements domain.UserRepository interface
var _ domain.UserRepository = (*userRepository)(nil)
