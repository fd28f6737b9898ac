package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"luxora/internal/core/apperr"
	"luxora/internal/core/mail"
	"luxora/internal/domain"
	"luxora/internal/repo"
	"luxora/pkg/utils"
)

const resetTokenTTL = time.Hour

type UpdateProfileInput struct {
	Name    *string         `json:"name"    binding:"omitempty,min=2,max=64"`
	Mobile  *string         `json:"mobile"  binding:"omitempty,mobile"`
	Address *domain.Address `json:"address"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required,max=72"`
	NewPassword     string `json:"newPassword"     binding:"required,password,max=72,nefield=CurrentPassword"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordInput struct {
	Token    string `json:"token"    binding:"required,max=128"`
	Password string `json:"password" binding:"required,password,max=72"`
}

// AccountService 客户资料与密码
type AccountService struct {
	users    *repo.UserRepo
	mailer   mail.Mailer
	resetURL string
	log      *zap.Logger
	now      func() time.Time
}

func NewAccountService(users *repo.UserRepo, m mail.Mailer, resetURL string, l *zap.Logger) *AccountService {
	return &AccountService{users: users, mailer: m, resetURL: resetURL, log: l, now: time.Now}
}

func (s *AccountService) Profile(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, dbErr(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, uid string, in UpdateProfileInput) (*domain.User, error) {
	u, err := s.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Mobile != nil && *in.Mobile != u.Mobile {
		other, err := s.users.FindByMobile(ctx, *in.Mobile)
		if err != nil {
			return nil, dbErr(err)
		}
		if other != nil {
			return nil, apperr.Conflict("mobile already registered")
		}
		u.Mobile = *in.Mobile
	}
	if in.Address != nil {
		u.Address = *in.Address
	}
	if err := s.users.Update(ctx, u); err != nil {
		if repo.IsDupKey(err) {
			return nil, apperr.Conflict("mobile already registered")
		}
		return nil, dbErr(err)
	}
	return u, nil
}

// DeleteAccount 软删除并停用，历史订单保留
func (s *AccountService) DeleteAccount(ctx context.Context, uid string) error {
	ok, err := s.users.SoftDelete(ctx, uid)
	if err != nil {
		return dbErr(err)
	}
	if !ok {
		return apperr.NotFound("user not found")
	}
	s.log.Info("account deleted", zap.String("uid", uid))
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, uid string, in ChangePasswordInput) error {
	u, err := s.Profile(ctx, uid)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(in.CurrentPassword, u.PasswordHash) {
		return apperr.Validation("current password is incorrect")
	}
	u.PasswordHash = utils.HashPassword(in.NewPassword)
	u.ResetTokenHash, u.ResetExpiresAt = "", nil
	if err := s.users.Update(ctx, u); err != nil {
		return dbErr(err)
	}
	return nil
}

// ForgotPassword 无论账号是否存在都返回成功，避免探测注册邮箱
func (s *AccountService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return dbErr(err)
	}
	if u == nil || !u.IsActive {
		return nil
	}
	tok := utils.NewToken()
	exp := s.now().Add(resetTokenTTL)
	u.ResetTokenHash, u.ResetExpiresAt = utils.HashToken(tok), &exp
	if err := s.users.Update(ctx, u); err != nil {
		return dbErr(err)
	}
	if err := s.mailer.Send(ctx, mail.PasswordReset(u.Name, u.Email, s.resetLink(tok))); err != nil {
		s.log.Error("send reset mail failed", zap.String("uid", u.ID), zap.Error(err))
	}
	return nil
}

func (s *AccountService) resetLink(tok string) string {
	sep := "?"
	if strings.Contains(s.resetURL, "?") {
		sep = "&"
	}
	return s.resetURL + sep + "token=" + url.QueryEscape(tok)
}

// ResetPassword 令牌一次有效，用后即清除
func (s *AccountService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	u, err := s.users.FindByResetToken(ctx, utils.HashToken(strings.TrimSpace(in.Token)))
	if err != nil {
		return dbErr(err)
	}
	if u == nil || u.ResetExpiresAt == nil || s.now().After(*u.ResetExpiresAt) {
		return apperr.Validation("reset link is invalid or has expired")
	}
	u.PasswordHash = utils.HashPassword(in.Password)
	u.ResetTokenHash, u.ResetExpiresAt = "", nil
	if err := s.users.Update(ctx, u); err != nil {
		return dbErr(err)
	}
	s.log.Info("password reset", zap.String("uid", u.ID))
	return nil
}
