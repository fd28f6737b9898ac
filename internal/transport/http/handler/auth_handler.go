package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"luxora/internal/domain"
	"luxora/internal/service"
	"luxora/internal/transport/http/ez"
	mdw "luxora/internal/transport/http/middleware"
)

// AuthHandler 客户注册登录、个人资料、密码与收货地址
type AuthHandler struct {
	Auth    *service.AuthService
	Account *service.AccountService
	DB      *gorm.DB // 收货地址走通用 CRUD
	Guard   Guard
}

func (h *AuthHandler) Priority() int { return 10 }

func (h *AuthHandler) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api)

	register := func(c *gin.Context, in *service.RegisterUserInput) (*service.AuthResult, error) {
		return h.Auth.RegisterUser(c.Request.Context(), *in)
	}
	login := func(c *gin.Context, in *service.LoginInput) (*service.AuthResult, error) {
		return h.Auth.LoginUser(c.Request.Context(), *in)
	}
	// 两套路径保持与旧客户端兼容
	for _, prefix := range []string{"/auth", "/user"} {
		ez.RegisterAction(pub, ez.Action[service.RegisterUserInput, *service.AuthResult]{
			Method: http.MethodPost, Path: prefix + "/register", Binder: ez.BindJSON,
			Status: http.StatusCreated, Message: "registered", Handler: register,
		})
		ez.RegisterAction(pub, ez.Action[service.LoginInput, *service.AuthResult]{
			Method: http.MethodPost, Path: prefix + "/login", Binder: ez.BindJSON,
			Message: "logged in", Handler: login,
		})
	}

	ez.RegisterAction(pub, ez.Action[service.ForgotPasswordInput, none]{
		Method: http.MethodPost, Path: "/password/forgot", Binder: ez.BindJSON,
		Message: "if the email is registered, a reset link has been sent",
		Handler: func(c *gin.Context, in *service.ForgotPasswordInput) (none, error) {
			return none{}, h.Account.ForgotPassword(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(pub, ez.Action[service.ResetPasswordInput, none]{
		Method: http.MethodPost, Path: "/password/reset", Binder: ez.BindJSON,
		Message: "password has been reset",
		Handler: func(c *gin.Context, in *service.ResetPasswordInput) (none, error) {
			return none{}, h.Account.ResetPassword(c.Request.Context(), *in)
		},
	})

	// 任意主体都可以登出：token 无状态，客户端自行丢弃
	ez.RegisterAction(ez.New(api.Group("", h.Guard.Any)), ez.Action[none, none]{
		Method: http.MethodPost, Path: "/user/logout", Binder: ez.BindNone, Auth: true,
		Message: "logged out",
		Handler: func(*gin.Context, *none) (none, error) { return none{}, nil },
	})

	authed := api.Group("", h.Guard.Customer)
	me := ez.New(authed)
	ez.RegisterAction(me, ez.Action[none, *domain.User]{
		Method: http.MethodGet, Path: "/user/profile", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *none) (*domain.User, error) {
			return h.Account.Profile(c.Request.Context(), c.GetString(mdw.KeyUserID))
		},
	})
	ez.RegisterAction(me, ez.Action[service.UpdateProfileInput, *domain.User]{
		Method: http.MethodPut, Path: "/user/profile", Binder: ez.BindJSON, Auth: true,
		Message: "profile updated",
		Handler: func(c *gin.Context, in *service.UpdateProfileInput) (*domain.User, error) {
			return h.Account.UpdateProfile(c.Request.Context(), c.GetString(mdw.KeyUserID), *in)
		},
	})
	ez.RegisterAction(me, ez.Action[none, none]{
		Method: http.MethodDelete, Path: "/user/account", Binder: ez.BindNone, Auth: true,
		Message: "account deleted",
		Handler: func(c *gin.Context, _ *none) (none, error) {
			return none{}, h.Account.DeleteAccount(c.Request.Context(), c.GetString(mdw.KeyUserID))
		},
	})
	ez.RegisterAction(me, ez.Action[service.ChangePasswordInput, none]{
		Method: http.MethodPut, Path: "/password/change", Binder: ez.BindJSON, Auth: true,
		Message: "password changed",
		Handler: func(c *gin.Context, in *service.ChangePasswordInput) (none, error) {
			return none{}, h.Account.ChangePassword(c.Request.Context(), c.GetString(mdw.KeyUserID), *in)
		},
	})

	ez.Crud(ez.CrudConfig[domain.SavedAddress]{
		DB:          h.DB,
		Group:       authed,
		Path:        "/user/addresses",
		New:         func() *domain.SavedAddress { return &domain.SavedAddress{} },
		MaxPerOwner: 20,
		OrderBy:     "created_at DESC",
		Hooks: ez.CrudHooks[domain.SavedAddress]{
			BeforeCreate: checkSavedAddress,
			BeforeUpdate: checkSavedAddress,
		},
	})
}

func checkSavedAddress(_ *gin.Context, a *domain.SavedAddress) error {
	if a.Line1 == "" || a.City == "" || a.Pincode == "" {
		return errIncompleteAddress
	}
	return nil
}
