// Package service 业务用例层：事务边界、权限归属校验与错误分类都在这里完成，
// HTTP 层只负责绑定参数和输出。
package service

import (
	"strings"

	"luxora/internal/core/apperr"
	"luxora/pkg/utils"
)

// Page 列表统一返回结构
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

func newPage[T any](items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, Pages: pages}
}

// PageQuery 通用分页参数
type PageQuery struct {
	Page  int `form:"page"  binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q PageQuery) norm() (offset, limit, page int) { return utils.Page(q.Page, q.Limit) }

func dbErr(err error) error { return apperr.Internal("database error", err) }

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
