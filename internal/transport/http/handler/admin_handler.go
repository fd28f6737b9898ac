package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"luxora/internal/domain"
	"luxora/internal/service"
	"luxora/internal/transport/http/ez"
	mdw "luxora/internal/transport/http/middleware"
)

// AdminHandler 管理端：用户、卖家审核与订单
type AdminHandler struct {
	Auth   *service.AuthService
	Admin  *service.AdminService
	Orders *service.OrderService
	Guard  Guard
}

func (h *AdminHandler) Priority() int { return 10 }

func (h *AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	ez.RegisterAction(ez.New(admin), ez.Action[service.LoginInput, *service.AuthResult]{
		Method: http.MethodPost, Path: "/auth/login", Binder: ez.BindJSON, Message: "logged in",
		Handler: func(c *gin.Context, in *service.LoginInput) (*service.AuthResult, error) {
			return h.Auth.LoginAdmin(c.Request.Context(), *in)
		},
	})

	// 以下都要求 admin 角色
	e := ez.New(admin.Group("", h.Guard.Admin))

	// --- GET /admin/v1/users  用户列表 ---
	ez.RegisterAction(e, ez.Action[service.AdminUsersQuery, service.List[domain.User]]{
		Method: http.MethodGet, Path: "/users", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *service.AdminUsersQuery) (service.List[domain.User], error) {
			return h.Admin.ListUsers(c.Request.Context(), *in)
		},
	})

	// --- POST /admin/v1/users/:id/ban  封禁（软删） ---
	ez.RegisterAction(e, ez.Action[none, gin.H]{
		Method: http.MethodPost, Path: "/users/:id/ban", Binder: ez.BindNone, Auth: true,
		Message: "user banned",
		Handler: func(c *gin.Context, _ *none) (gin.H, error) {
			id := c.Param("id")
			if err := h.Admin.BanUser(c.Request.Context(), c.GetString(mdw.KeyUserID), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[service.AdminSellersQuery, service.List[domain.PublicSeller]]{
		Method: http.MethodGet, Path: "/sellers", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *service.AdminSellersQuery) (service.List[domain.PublicSeller], error) {
			return h.Admin.ListSellers(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[service.ApproveInput, *domain.PublicSeller]{
		Method: http.MethodPost, Path: "/sellers/:id/approve", Binder: ez.BindJSON, Auth: true,
		Message: "seller updated",
		Handler: func(c *gin.Context, in *service.ApproveInput) (*domain.PublicSeller, error) {
			return h.Admin.ApproveSeller(c.Request.Context(), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[service.AdminOrdersQuery, service.Page[domain.Order]]{
		Method: http.MethodGet, Path: "/orders", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *service.AdminOrdersQuery) (service.Page[domain.Order], error) {
			return h.Orders.ListAll(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[service.StatusInput, *domain.Order]{
		Method: http.MethodPut, Path: "/orders/:id/status", Binder: ez.BindJSON, Auth: true,
		Message: "order status updated",
		Handler: func(c *gin.Context, in *service.StatusInput) (*domain.Order, error) {
			return h.Orders.SetStatus(c.Request.Context(), c.Param("id"), *in)
		},
	})
}
