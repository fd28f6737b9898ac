package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"luxora/internal/domain"
	"luxora/internal/service"
	"luxora/internal/transport/http/ez"
)

type ProductHandler struct {
	Products *service.ProductService
	Guard    Guard
}

func (h *ProductHandler) Priority() int { return 30 }

func (h *ProductHandler) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api.Group("/products"))
	ez.RegisterAction(pub, ez.Action[service.ListProductsQuery, service.Page[domain.Product]]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *service.ListProductsQuery) (service.Page[domain.Product], error) {
			return h.Products.List(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(pub, ez.Action[none, *domain.Product]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *none) (*domain.Product, error) {
			return h.Products.Get(c.Request.Context(), c.Param("id"))
		},
	})

	// 卖家：商品增删改与图片
	sg := ez.New(api.Group("/products", h.Guard.Seller))
	ez.RegisterAction(sg, ez.Action[service.ProductInput, *domain.Product]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Auth: true,
		Status: http.StatusCreated, Message: "product created",
		Handler: func(c *gin.Context, in *service.ProductInput) (*domain.Product, error) {
			sl, err := sellerOf(c)
			if err != nil {
				return nil, err
			}
			return h.Products.Create(c.Request.Context(), sl, *in)
		},
	})
	ez.RegisterAction(sg, ez.Action[service.UpdateProductInput, *domain.Product]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindJSON, Auth: true, Message: "product updated",
		Handler: func(c *gin.Context, in *service.UpdateProductInput) (*domain.Product, error) {
			sl, err := sellerOf(c)
			if err != nil {
				return nil, err
			}
			return h.Products.Update(c.Request.Context(), sl, c.Param("id"), *in)
		},
	})
	ez.RegisterAction(sg, ez.Action[none, gin.H]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone, Auth: true, Message: "product deleted",
		Handler: func(c *gin.Context, _ *none) (gin.H, error) {
			sl, err := sellerOf(c)
			if err != nil {
				return nil, err
			}
			id := c.Param("id")
			if err := h.Products.Delete(c.Request.Context(), sl, id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
	ez.POSTFILES(sg, "/:id/images", "images", 10, func(c *gin.Context, files []*multipart.FileHeader) (any, error) {
		sl, err := sellerOf(c)
		if err != nil {
			return nil, err
		}
		return h.Products.UploadImages(c.Request.Context(), sl, c.Param("id"), files)
	})

	cg := ez.New(api.Group("/products", h.Guard.Customer))
	ez.RegisterAction(cg, ez.Action[service.ReviewInput, *service.ReviewResult]{
		Method: http.MethodPost, Path: "/:id/reviews", Binder: ez.BindJSON, Auth: true,
		Status: http.StatusCreated, Message: "review added",
		Handler: func(c *gin.Context, in *service.ReviewInput) (*service.ReviewResult, error) {
			u, err := customerOf(c)
			if err != nil {
				return nil, err
			}
			return h.Products.AddReview(c.Request.Context(), u, c.Param("id"), *in)
		},
	})
}
