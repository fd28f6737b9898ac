package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"luxora/internal/domain"
	"luxora/internal/service"
	"luxora/internal/transport/http/ez"
	mdw "luxora/internal/transport/http/middleware"
	resp "luxora/internal/transport/http/response"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// OrderHandler 下单、订单查询取消与卡支付
type OrderHandler struct {
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Payments *service.PaymentService
	Guard    Guard
}

func (h *OrderHandler) Priority() int { return 50 }

// placeOrder 同一幂等键重放时返回 200 和已有订单，首次创建返回 201
func (h *OrderHandler) placeOrder(c *gin.Context, in *service.CheckoutInput) (*domain.Order, error) {
	u, err := customerOf(c)
	if err != nil {
		return nil, err
	}
	in.IdempotencyKey = c.GetHeader(HeaderIdempotencyKey)
	o, replayed, err := h.Checkout.PlaceOrder(c.Request.Context(), u, *in)
	if err != nil {
		return nil, err
	}
	if replayed {
		c.JSON(http.StatusOK, resp.Msg("order already placed", o))
	}
	return o, nil
}

func (h *OrderHandler) MountAPI(api *gin.RouterGroup) {
	orders := ez.New(api.Group("/orders", h.Guard.Customer))
	ez.RegisterAction(orders, ez.Action[service.CheckoutInput, *domain.Order]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Auth: true,
		Status: http.StatusCreated, Message: "order placed", Handler: h.placeOrder,
	})
	ez.RegisterAction(orders, ez.Action[service.PageQuery, service.Page[domain.Order]]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *service.PageQuery) (service.Page[domain.Order], error) {
			return h.Orders.ListMine(c.Request.Context(), c.GetString(mdw.KeyUserID), *in)
		},
	})
	ez.RegisterAction(orders, ez.Action[none, *domain.Order]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *none) (*domain.Order, error) {
			return h.Orders.GetMine(c.Request.Context(), c.GetString(mdw.KeyUserID), c.Param("id"))
		},
	})
	cancel := func(c *gin.Context, in *service.CancelInput) (*domain.Order, error) {
		return h.Orders.Cancel(c.Request.Context(), c.GetString(mdw.KeyUserID), c.Param("id"), *in)
	}
	ez.RegisterAction(orders, ez.Action[service.CancelInput, *domain.Order]{
		Method: http.MethodPut, Path: "/:id/cancel", Binder: ez.BindJSON, Auth: true,
		Message: "order cancelled", Handler: cancel,
	})
	ez.RegisterAction(orders, ez.Action[service.CancelInput, *domain.Order]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindJSON, Auth: true,
		Message: "order cancelled", Handler: cancel,
	})

	api.GET("/payment/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, resp.OK(h.Payments.Config()))
	})
	pay := ez.New(api.Group("/payment", h.Guard.Customer))
	ez.RegisterAction(pay, ez.Action[service.CreateIntentInput, *service.IntentResult]{
		Method: http.MethodPost, Path: "/create-payment-intent", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *service.CreateIntentInput) (*service.IntentResult, error) {
			return h.Payments.CreateIntent(c.Request.Context(), c.GetString(mdw.KeyUserID), *in)
		},
	})
	ez.RegisterAction(pay, ez.Action[service.CheckoutInput, *domain.Order]{
		Method: http.MethodPost, Path: "/create-order", Binder: ez.BindJSON, Auth: true,
		Status: http.StatusCreated, Message: "order placed", Handler: h.placeOrder,
	})
	ez.RegisterAction(pay, ez.Action[service.ConfirmPaymentInput, *domain.Order]{
		Method: http.MethodPost, Path: "/confirm-payment", Binder: ez.BindJSON, Auth: true,
		Message: "payment confirmed",
		Handler: func(c *gin.Context, in *service.ConfirmPaymentInput) (*domain.Order, error) {
			return h.Payments.ConfirmPayment(c.Request.Context(), c.GetString(mdw.KeyUserID), *in)
		},
	})
}
