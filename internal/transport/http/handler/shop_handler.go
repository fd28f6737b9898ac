package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"luxora/internal/service"
	"luxora/internal/transport/http/ez"
	mdw "luxora/internal/transport/http/middleware"
)

// ShopHandler 购物车与收藏夹
type ShopHandler struct {
	Cart     *service.CartService
	Wishlist *service.WishlistService
	Guard    Guard
}

func (h *ShopHandler) Priority() int { return 40 }

type cartOp func(c *gin.Context, uid string) (*service.CartView, error)

func (h *ShopHandler) cartAction(e ez.EZ, method, path, msg string, op cartOp) {
	ez.RegisterAction(e, ez.Action[none, *service.CartView]{
		Method: method, Path: path, Binder: ez.BindNone, Auth: true, Message: msg,
		Handler: func(c *gin.Context, _ *none) (*service.CartView, error) {
			return op(c, c.GetString(mdw.KeyUserID))
		},
	})
}

func (h *ShopHandler) MountAPI(api *gin.RouterGroup) {
	cart := ez.New(api.Group("/cart", h.Guard.Customer))
	h.cartAction(cart, http.MethodGet, "", "", func(c *gin.Context, uid string) (*service.CartView, error) {
		return h.Cart.Get(c.Request.Context(), uid)
	})
	ez.RegisterAction(cart, ez.Action[service.AddToCartInput, *service.CartView]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Auth: true, Message: "added to cart",
		Handler: func(c *gin.Context, in *service.AddToCartInput) (*service.CartView, error) {
			return h.Cart.Add(c.Request.Context(), c.GetString(mdw.KeyUserID), *in)
		},
	})
	h.cartAction(cart, http.MethodPut, "/:productId/increase", "", func(c *gin.Context, uid string) (*service.CartView, error) {
		return h.Cart.Increase(c.Request.Context(), uid, c.Param("productId"))
	})
	h.cartAction(cart, http.MethodPut, "/:productId/decrease", "", func(c *gin.Context, uid string) (*service.CartView, error) {
		return h.Cart.Decrease(c.Request.Context(), uid, c.Param("productId"))
	})
	h.cartAction(cart, http.MethodDelete, "/:productId", "removed from cart", func(c *gin.Context, uid string) (*service.CartView, error) {
		return h.Cart.Remove(c.Request.Context(), uid, c.Param("productId"))
	})
	h.cartAction(cart, http.MethodDelete, "", "cart cleared", func(c *gin.Context, uid string) (*service.CartView, error) {
		return h.Cart.Clear(c.Request.Context(), uid)
	})

	wl := ez.New(api.Group("/wishlist", h.Guard.Customer))
	ez.RegisterAction(wl, ez.Action[none, *service.WishlistView]{
		Method: http.MethodGet, Path: "", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *none) (*service.WishlistView, error) {
			return h.Wishlist.List(c.Request.Context(), c.GetString(mdw.KeyUserID))
		},
	})
	ez.RegisterAction(wl, ez.Action[service.WishlistInput, *service.ToggleResult]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *service.WishlistInput) (*service.ToggleResult, error) {
			return h.Wishlist.Toggle(c.Request.Context(), c.GetString(mdw.KeyUserID), *in)
		},
	})
	ez.RegisterAction(wl, ez.Action[none, *service.WishlistView]{
		Method: http.MethodDelete, Path: "/:productId", Binder: ez.BindNone, Auth: true,
		Message: "removed from wishlist",
		Handler: func(c *gin.Context, _ *none) (*service.WishlistView, error) {
			uid := c.GetString(mdw.KeyUserID)
			if err := h.Wishlist.Remove(c.Request.Context(), uid, c.Param("productId")); err != nil {
				return nil, err
			}
			return h.Wishlist.List(c.Request.Context(), uid)
		},
	})
}
