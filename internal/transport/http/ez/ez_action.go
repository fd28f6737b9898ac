package ez

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"luxora/internal/core/apperr"
	resp "luxora/internal/transport/http/response"
	"luxora/pkg/utils"
)

// Hook
type CrudHooks[T any] struct {
	BeforeCreate func(c *gin.Context, m *T) error
	BeforeUpdate func(c *gin.Context, m *T) error
	ScopeList    func(c *gin.Context, q *gorm.DB) *gorm.DB // 自定义筛选/排序
	AfterGet     func(c *gin.Context, m *T)
}

type CrudConfig[T any] struct {
	DB    *gorm.DB
	Group *gin.RouterGroup // 已鉴权分组（能拿 userId）
	Path  string
	New   func() *T

	Hooks CrudHooks[T]

	AllowCreate bool
	AllowList   bool
	AllowGet    bool
	AllowUpdate bool
	AllowDelete bool

	// 每个 owner 最多多少条，0 不限制
	MaxPerOwner int64

	IDField    string // 默认 "ID"
	OwnerField string // 默认优先 "OwnerID"，其次 "UserID"/"UID"

	AutoID bool          // 默认 true
	IDGen  func() string // 默认 utils.NewID

	// 列表排序，为空则按 ID DESC
	OrderBy string // 例如 "created_at DESC"
}

// 反射 & 工具
func (c *CrudConfig[T]) idFieldCandidates() []string {
	if c.IDField != "" {
		return []string{c.IDField, "ID", "Id"}
	}
	return []string{"ID", "Id"}
}

func (c *CrudConfig[T]) ownerFieldCandidates() []string {
	if c.OwnerField != "" {
		return []string{c.OwnerField, "OwnerID", "UserID", "UID"}
	}
	return []string{"OwnerID", "UserID", "UID"}
}

func getStringFieldPtr(obj any, candidates []string) (*string, bool) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr {
		return nil, false
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		// 未导出字段跳过
		if f.PkgPath != "" {
			continue
		}
		for _, cand := range candidates {
			if f.Name == cand {
				fv := v.Field(i)
				if fv.Kind() == reflect.String && fv.CanSet() {
					p := fv.Addr().Interface().(*string)
					return p, true
				}
			}
		}
	}
	return nil, false
}

func writeStringField(obj any, candidates []string, val string) bool {
	p, ok := getStringFieldPtr(obj, candidates)
	if !ok {
		return false
	}
	*p = val
	return true
}

// hookErr 钩子返回的普通 error 视为校验失败
func hookErr(c *gin.Context, err error) {
	if _, ok := apperr.As(err); ok {
		resp.Error(c, err)
		return
	}
	resp.Error(c, apperr.Validation(err.Error()))
}

// CRUD 注册（无需模型实现任何接口），所有操作都限定在当前用户名下
func Crud[T any](cfg CrudConfig[T]) {
	// 默认放开所有操作
	if !cfg.AllowCreate && !cfg.AllowGet && !cfg.AllowList && !cfg.AllowUpdate && !cfg.AllowDelete {
		cfg.AllowCreate, cfg.AllowList, cfg.AllowGet, cfg.AllowUpdate, cfg.AllowDelete = true, true, true, true, true
	}
	if !cfg.AutoID && cfg.IDGen == nil {
		cfg.AutoID = true
	}
	if cfg.IDGen == nil {
		cfg.IDGen = utils.NewID
	}

	idFieldNames := cfg.idFieldCandidates()
	ownerFieldNames := cfg.ownerFieldCandidates()

	// 只含 id + owner 的过滤条件
	scoped := func(id, uid string) *T {
		f := cfg.New()
		if id != "" {
			_ = writeStringField(f, idFieldNames, id)
		}
		_ = writeStringField(f, ownerFieldNames, uid)
		return f
	}
	owner := func(c *gin.Context) (string, bool) {
		uid := c.GetString("userId")
		if uid == "" {
			resp.Abort(c, http.StatusUnauthorized, "unauthorized")
			return "", false
		}
		return uid, true
	}
	load := func(c *gin.Context, id, uid string) (*T, bool) {
		m := cfg.New()
		err := cfg.DB.WithContext(c).Where(scoped(id, uid)).First(m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			resp.Error(c, apperr.NotFound("not found"))
			return nil, false
		}
		if err != nil {
			resp.Error(c, apperr.Internal("load failed", err))
			return nil, false
		}
		return m, true
	}

	// Create
	if cfg.AllowCreate {
		cfg.Group.POST(cfg.Path, func(c *gin.Context) {
			uid, ok := owner(c)
			if !ok {
				return
			}
			m := cfg.New()
			if err := c.ShouldBindJSON(m); err != nil {
				resp.BadRequest(c, err)
				return
			}
			if cfg.MaxPerOwner > 0 {
				var n int64
				if err := cfg.DB.WithContext(c).Model(cfg.New()).Where(scoped("", uid)).Count(&n).Error; err != nil {
					resp.Error(c, apperr.Internal("count failed", err))
					return
				}
				if n >= cfg.MaxPerOwner {
					resp.Error(c, apperr.Validation("limit reached"))
					return
				}
			}
			// 自动生成 ID；客户端传入的 ID 一律忽略
			if cfg.AutoID && !writeStringField(m, idFieldNames, cfg.IDGen()) {
				resp.Error(c, apperr.Internal("id field not found", nil))
				return
			}
			// 写 Owner
			if !writeStringField(m, ownerFieldNames, uid) {
				resp.Error(c, apperr.Internal("owner field not found", nil))
				return
			}
			if cfg.Hooks.BeforeCreate != nil {
				if err := cfg.Hooks.BeforeCreate(c, m); err != nil {
					hookErr(c, err)
					return
				}
			}
			if err := cfg.DB.WithContext(c).Create(m).Error; err != nil {
				resp.Error(c, apperr.Internal("create failed", err))
				return
			}
			if cfg.Hooks.AfterGet != nil {
				cfg.Hooks.AfterGet(c, m)
			}
			c.JSON(http.StatusCreated, resp.OK(m))
		})
	}

	// List（我的）
	if cfg.AllowList {
		cfg.Group.GET(cfg.Path, func(c *gin.Context) {
			uid, ok := owner(c)
			if !ok {
				return
			}
			var pq struct {
				Page  int `form:"page"`
				Limit int `form:"limit"`
			}
			_ = c.ShouldBindQuery(&pq)
			offset, size, page := utils.Page(pq.Page, pq.Limit)

			q := cfg.DB.WithContext(c).Model(cfg.New()).Where(scoped("", uid))
			if cfg.Hooks.ScopeList != nil {
				q = cfg.Hooks.ScopeList(c, q)
			}

			var total int64
			if err := q.Count(&total).Error; err != nil {
				resp.Error(c, apperr.Internal("count failed", err))
				return
			}

			items := []T{}
			// 动态排序：优先按配置 OrderBy，否则按 ID DESC
			if cfg.OrderBy != "" {
				q = q.Order(cfg.OrderBy)
			} else {
				q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: cfg.DB.NamingStrategy.ColumnName("", idFieldNames[0])}, Desc: true})
			}
			if err := q.Limit(size).Offset(offset).Find(&items).Error; err != nil {
				resp.Error(c, apperr.Internal("list failed", err))
				return
			}
			if cfg.Hooks.AfterGet != nil {
				for i := range items {
					cfg.Hooks.AfterGet(c, &items[i])
				}
			}
			c.JSON(http.StatusOK, resp.OK(gin.H{
				"list": items, "total": total, "page": page, "limit": size,
			}))
		})
	}

	// Get
	if cfg.AllowGet {
		cfg.Group.GET(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := owner(c)
			if !ok {
				return
			}
			m, ok := load(c, c.Param("id"), uid)
			if !ok {
				return
			}
			if cfg.Hooks.AfterGet != nil {
				cfg.Hooks.AfterGet(c, m)
			}
			c.JSON(http.StatusOK, resp.OK(m))
		})
	}

	// Update
	if cfg.AllowUpdate {
		cfg.Group.PUT(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := owner(c)
			if !ok {
				return
			}
			id := c.Param("id")

			// 先确认归属
			if _, ok := load(c, id, uid); !ok {
				return
			}

			in := cfg.New()
			if err := c.ShouldBindJSON(in); err != nil {
				resp.BadRequest(c, err)
				return
			}
			// 强制保持 ID/Owner
			_ = writeStringField(in, idFieldNames, id)
			_ = writeStringField(in, ownerFieldNames, uid)

			if cfg.Hooks.BeforeUpdate != nil {
				if err := cfg.Hooks.BeforeUpdate(c, in); err != nil {
					hookErr(c, err)
					return
				}
			}
			// 整体替换（布尔 false 也要写入），创建时间不动
			err := cfg.DB.WithContext(c).Model(cfg.New()).Where(scoped(id, uid)).
				Select("*").Omit("CreatedAt").Updates(in).Error
			if err != nil {
				resp.Error(c, apperr.Internal("update failed", err))
				return
			}
			m, ok := load(c, id, uid)
			if !ok {
				return
			}
			if cfg.Hooks.AfterGet != nil {
				cfg.Hooks.AfterGet(c, m)
			}
			c.JSON(http.StatusOK, resp.OK(m))
		})
	}

	// Delete
	if cfg.AllowDelete {
		cfg.Group.DELETE(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := owner(c)
			if !ok {
				return
			}
			id := c.Param("id")
			res := cfg.DB.WithContext(c).Where(scoped(id, uid)).Delete(cfg.New())
			if res.Error != nil {
				resp.Error(c, apperr.Internal("delete failed", res.Error))
				return
			}
			if res.RowsAffected == 0 {
				resp.Error(c, apperr.NotFound("not found"))
				return
			}
			c.JSON(http.StatusOK, resp.Msg("deleted", gin.H{"id": id}))
		})
	}
}
