package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxora/internal/core/realtime"
	"luxora/internal/domain"
	"luxora/internal/service"
	"luxora/internal/transport/http/ez"
	mdw "luxora/internal/transport/http/middleware"
	resp "luxora/internal/transport/http/response"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SellerHandler 卖家注册登录、店铺设置、订单履约与实时推送
type SellerHandler struct {
	Auth     *service.AuthService
	Sellers  *service.SellerService
	Products *service.ProductService
	Orders   *service.OrderService
	Hub      *realtime.Hub
	Guard    Guard
	Log      *zap.Logger
}

func (h *SellerHandler) Priority() int { return 20 }

func (h *SellerHandler) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api.Group("/seller/auth"))
	ez.RegisterAction(pub, ez.Action[service.RegisterSellerInput, *service.SellerAuthResult]{
		Method: http.MethodPost, Path: "/register", Binder: ez.BindJSON,
		Status: http.StatusCreated, Message: "seller registered, pending approval",
		Handler: func(c *gin.Context, in *service.RegisterSellerInput) (*service.SellerAuthResult, error) {
			return h.Auth.RegisterSeller(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(pub, ez.Action[service.LoginInput, *service.SellerAuthResult]{
		Method: http.MethodPost, Path: "/login", Binder: ez.BindJSON, Message: "logged in",
		Handler: func(c *gin.Context, in *service.LoginInput) (*service.SellerAuthResult, error) {
			return h.Auth.LoginSeller(c.Request.Context(), *in)
		},
	})

	g := api.Group("/seller", h.Guard.Seller)
	sg := ez.New(g)
	ez.RegisterAction(sg, ez.Action[none, *domain.SellerSettings]{
		Method: http.MethodGet, Path: "/profile", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *none) (*domain.SellerSettings, error) {
			return h.Sellers.Settings(c.Request.Context(), c.GetString(mdw.KeyUserID))
		},
	})
	ez.RegisterAction(sg, ez.Action[service.UpdateSellerInput, *domain.SellerSettings]{
		Method: http.MethodPut, Path: "/profile", Binder: ez.BindJSON, Auth: true, Message: "profile updated",
		Handler: func(c *gin.Context, in *service.UpdateSellerInput) (*domain.SellerSettings, error) {
			return h.Sellers.UpdateSettings(c.Request.Context(), c.GetString(mdw.KeyUserID), *in)
		},
	})
	ez.RegisterAction(sg, ez.Action[none, []domain.Product]{
		Method: http.MethodGet, Path: "/products", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *none) ([]domain.Product, error) {
			return h.Products.ListBySeller(c.Request.Context(), c.GetString(mdw.KeyUserID))
		},
	})
	g.GET("/products/export", h.export)

	ez.RegisterAction(sg, ez.Action[service.SellerOrdersQuery, service.Page[service.SellerOrder]]{
		Method: http.MethodGet, Path: "/orders", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *service.SellerOrdersQuery) (service.Page[service.SellerOrder], error) {
			return h.Orders.ListForSeller(c.Request.Context(), c.GetString(mdw.KeyUserID), *in)
		},
	})
	ez.RegisterAction(sg, ez.Action[service.StatusInput, *service.SellerOrder]{
		Method: http.MethodPut, Path: "/orders/:id/status", Binder: ez.BindJSON, Auth: true,
		Message: "order status updated",
		Handler: func(c *gin.Context, in *service.StatusInput) (*service.SellerOrder, error) {
			return h.Orders.Advance(c.Request.Context(), c.GetString(mdw.KeyUserID), c.Param("id"), *in)
		},
	})

	g.GET("/ws", h.live)
}

// export 先写入内存再输出，失败时还能返回 JSON 错误
func (h *SellerHandler) export(c *gin.Context) {
	sid := c.GetString(mdw.KeyUserID)
	var buf bytes.Buffer
	if err := h.Sellers.ExportCatalog(c.Request.Context(), sid, &buf); err != nil {
		resp.Error(c, err)
		return
	}
	name := "products-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

func (h *SellerHandler) live(c *gin.Context) {
	sid := c.GetString(mdw.KeyUserID)
	if h.Hub == nil {
		resp.Error(c, errLiveOff)
		return
	}
	if err := h.Hub.Serve(c.Writer, c.Request, sid); err != nil {
		// Upgrade 失败时已经写过响应
		h.Log.Warn("websocket upgrade failed", zap.String("sid", sid), zap.Error(err))
	}
}
