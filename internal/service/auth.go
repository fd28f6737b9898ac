package service

import (
	"context"
	"fmt"
	"hash/crc32"
	"strings"
	"time"

	"go.uber.org/zap"

	"luxora/internal/core/apperr"
	"luxora/internal/core/auth"
	"luxora/internal/domain"
	"luxora/internal/repo"
	"luxora/pkg/utils"
)

type RegisterUserInput struct {
	Name     string `json:"name"     binding:"required,min=2,max=64"`
	Email    string `json:"email"    binding:"required,email,max=191"`
	Mobile   string `json:"mobile"   binding:"required,mobile"`
	Password string `json:"password" binding:"required,password,max=72"`
}

// LoginInput identifier 可以是邮箱或手机号；兼容直接传 email / mobile 的老客户端
type LoginInput struct {
	Identifier string `json:"identifier" binding:"omitempty,max=191"`
	Email      string `json:"email"      binding:"omitempty,max=191"`
	Mobile     string `json:"mobile"     binding:"omitempty,max=16"`
	Password   string `json:"password"   binding:"required,max=72"`
}

func (in LoginInput) identifier() string {
	for _, s := range []string{in.Identifier, in.Email, in.Mobile} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

type RegisterSellerInput struct {
	Name              string         `json:"name"              binding:"required,min=2,max=64"`
	Email             string         `json:"email"             binding:"required,email,max=191"`
	Mobile            string         `json:"mobile"            binding:"required,mobile"`
	Password          string         `json:"password"          binding:"required,strongpassword,max=72"`
	BusinessName      string         `json:"businessName"      binding:"required,min=2,max=128"`
	BusinessType      string         `json:"businessType"      binding:"omitempty,oneof=individual partnership company"`
	BusinessAddress   domain.Address `json:"businessAddress"`
	GSTIN             string         `json:"gstin"             binding:"omitempty,gstin"`
	PAN               string         `json:"pan"               binding:"omitempty,pan"`
	BankAccountNumber string         `json:"bankAccountNumber" binding:"omitempty,numeric,min=9,max=18"`
	IFSC              string         `json:"ifsc"              binding:"omitempty,ifsc"`
	AccountHolderName string         `json:"accountHolderName" binding:"omitempty,max=64"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type SellerAuthResult struct {
	Token  string              `json:"token"`
	Seller domain.PublicSeller `json:"seller"`
}

// AuthService 注册、登录与鉴权主体加载（客户、卖家、管理员）
type AuthService struct {
	users   *repo.UserRepo
	sellers *repo.SellerRepo
	jwt     *auth.JWTer
	log     *zap.Logger
	now     func() time.Time
}

func NewAuthService(users *repo.UserRepo, sellers *repo.SellerRepo, j *auth.JWTer, l *zap.Logger) *AuthService {
	return &AuthService{users: users, sellers: sellers, jwt: j, log: l, now: time.Now}
}

func (s *AuthService) RegisterUser(ctx context.Context, in RegisterUserInput) (*AuthResult, error) {
	email, mobile := normEmail(in.Email), strings.TrimSpace(in.Mobile)
	emailTaken, mobileTaken, err := s.users.ExistsEmailOrMobile(ctx, email, mobile)
	if err != nil {
		return nil, dbErr(err)
	}
	if err := takenErr(emailTaken, mobileTaken); err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Mobile:       mobile,
		PasswordHash: utils.HashPassword(in.Password),
		Role:         auth.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册：预检通过但唯一约束冲突
		if repo.IsDupKey(err) {
			return nil, apperr.Conflict("email or mobile already registered")
		}
		return nil, dbErr(err)
	}
	s.log.Info("user registered", zap.String("uid", u.ID))
	return s.issueUser(u)
}

func takenErr(emailTaken, mobileTaken bool) error {
	switch {
	case emailTaken && mobileTaken:
		return apperr.Conflict("email and mobile already registered")
	case emailTaken:
		return apperr.Conflict("email already registered")
	case mobileTaken:
		return apperr.Conflict("mobile already registered")
	}
	return nil
}

var errBadCredentials = apperr.Unauthorized("invalid credentials")

func (s *AuthService) LoginUser(ctx context.Context, in LoginInput) (*AuthResult, error) {
	id := in.identifier()
	if id == "" {
		return nil, apperr.Validation("email or mobile is required")
	}
	var (
		u   *domain.User
		err error
	)
	if strings.Contains(id, "@") {
		u, err = s.users.FindByEmail(ctx, id)
	} else {
		u, err = s.users.FindByMobile(ctx, id)
	}
	if err != nil {
		return nil, dbErr(err)
	}
	if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
		return nil, errBadCredentials
	}
	if !u.IsActive {
		return nil, apperr.Forbidden("account is deactivated")
	}
	now := s.now()
	if err := s.users.TouchLogin(ctx, u.ID, now); err != nil {
		s.log.Warn("update last login failed", zap.String("uid", u.ID), zap.Error(err))
	}
	u.LastLogin = &now
	return s.issueUser(u)
}

// LoginAdmin 管理端登录，只接受 admin 角色
func (s *AuthService) LoginAdmin(ctx context.Context, in LoginInput) (*AuthResult, error) {
	res, err := s.LoginUser(ctx, in)
	if err != nil {
		return nil, err
	}
	if res.User.Role != auth.RoleAdmin {
		return nil, apperr.Forbidden("admin only")
	}
	return res, nil
}

func (s *AuthService) issueUser(u *domain.User) (*AuthResult, error) {
	tok, err := s.jwt.Issue(u.ID, u.Role)
	if err != nil {
		return nil, apperr.Internal("issue token failed", err)
	}
	return &AuthResult{Token: tok, User: u}, nil
}

func (s *AuthService) RegisterSeller(ctx context.Context, in RegisterSellerInput) (*SellerAuthResult, error) {
	email, mobile := normEmail(in.Email), strings.TrimSpace(in.Mobile)
	emailTaken, mobileTaken, err := s.sellers.ExistsEmailOrMobile(ctx, email, mobile)
	if err != nil {
		return nil, dbErr(err)
	}
	if err := takenErr(emailTaken, mobileTaken); err != nil {
		return nil, err
	}
	sl := &domain.Seller{
		ID:                utils.NewID(),
		Name:              strings.TrimSpace(in.Name),
		Email:             email,
		Mobile:            mobile,
		PasswordHash:      utils.HashPassword(in.Password),
		BusinessName:      strings.TrimSpace(in.BusinessName),
		BusinessType:      in.BusinessType,
		BusinessAddress:   in.BusinessAddress,
		GSTIN:             strings.ToUpper(in.GSTIN),
		PAN:               strings.ToUpper(in.PAN),
		BankAccountNumber: in.BankAccountNumber,
		IFSC:              strings.ToUpper(in.IFSC),
		AccountHolderName: strings.TrimSpace(in.AccountHolderName),
		IsActive:          true,
	}
	if err := s.sellers.Create(ctx, sl); err != nil {
		if repo.IsDupKey(err) {
			return nil, apperr.Conflict("email or mobile already registered")
		}
		return nil, dbErr(err)
	}
	s.log.Info("seller registered", zap.String("sid", sl.ID))
	return s.issueSeller(sl)
}

func (s *AuthService) LoginSeller(ctx context.Context, in LoginInput) (*SellerAuthResult, error) {
	id := in.identifier()
	if id == "" {
		return nil, apperr.Validation("email or mobile is required")
	}
	var (
		sl  *domain.Seller
		err error
	)
	if strings.Contains(id, "@") {
		sl, err = s.sellers.FindByEmail(ctx, id)
	} else {
		sl, err = s.sellers.FindByMobile(ctx, id)
	}
	if err != nil {
		return nil, dbErr(err)
	}
	if sl == nil || !utils.CheckPassword(in.Password, sl.PasswordHash) {
		return nil, errBadCredentials
	}
	if !sl.IsActive {
		return nil, apperr.Forbidden("account is deactivated")
	}
	now := s.now()
	if err := s.sellers.TouchLogin(ctx, sl.ID, now); err != nil {
		s.log.Warn("update last login failed", zap.String("sid", sl.ID), zap.Error(err))
	}
	sl.LastLogin = &now
	return s.issueSeller(sl)
}

func (s *AuthService) issueSeller(sl *domain.Seller) (*SellerAuthResult, error) {
	tok, err := s.jwt.Issue(sl.ID, auth.RoleSeller)
	if err != nil {
		return nil, apperr.Internal("issue token failed", err)
	}
	return &SellerAuthResult{Token: tok, Seller: sl.PublicData()}, nil
}

// LoadPrincipal token 中的 role 决定查哪张表；返回的角色以库中数据为准
func (s *AuthService) LoadPrincipal(ctx context.Context, id, role string) (*domain.Principal, error) {
	if role == auth.RoleSeller {
		sl, err := s.sellers.FindByID(ctx, id)
		if err != nil {
			return nil, dbErr(err)
		}
		if sl == nil {
			return nil, nil
		}
		p := domain.SellerPrincipal(sl)
		return &p, nil
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if u == nil {
		return nil, nil
	}
	p := domain.CustomerPrincipal(u)
	return &p, nil
}

// EnsureAdmin 启动时按配置创建或提升管理员账号
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normEmail(email)
	if email == "" || password == "" {
		return nil
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u != nil {
		if u.Role == auth.RoleAdmin {
			return nil
		}
		u.Role = auth.RoleAdmin
		s.log.Info("promote user to admin", zap.String("uid", u.ID))
		return s.users.Update(ctx, u)
	}
	u = &domain.User{
		ID:           utils.NewID(),
		Name:         "Administrator",
		Email:        email,
		Mobile:       fmt.Sprintf("0%09d", crc32.ChecksumIEEE([]byte(email))%1_000_000_000),
		PasswordHash: utils.HashPassword(password),
		Role:         auth.RoleAdmin,
		IsActive:     true,
		IsVerified:   true,
	}
	s.log.Info("bootstrap admin", zap.String("email", email))
	return s.users.Create(ctx, u)
}
