package ez

import (
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"luxora/internal/core/apperr"
	resp "luxora/internal/transport/http/response"
	"luxora/pkg/validate"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定；空 body 只做校验
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// Action I 入参，O 出参；事务由服务层负责
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool     // 要求已登录（userId）
	Roles   []string // 限定角色（可选）
	Status  int      // 成功状态码，默认 200
	Message string   // 成功提示（可选）
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth && c.GetString("userId") == "" {
			resp.Abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		if len(a.Roles) > 0 && !hasRole(c.GetString("role"), a.Roles) {
			resp.Abort(c, http.StatusForbidden, "forbidden")
			return
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			if c.Request.ContentLength == 0 {
				bindErr = binding.Validator.ValidateStruct(&in)
			} else {
				bindErr = c.ShouldBindJSON(&in)
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			resp.BadRequest(c, bindErr)
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, &in)
		if err != nil {
			resp.Error(c, err)
			return
		}
		if c.Writer.Written() {
			return
		}
		if a.Message != "" {
			c.JSON(status, resp.Msg(a.Message, out))
			return
		}
		c.JSON(status, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

// POSTFILES 处理 multipart/form-data 多文件上传
func POSTFILES(e EZ, path, fieldName string, maxFiles int, h func(c *gin.Context, files []*multipart.FileHeader) (any, error)) {
	e.g.POST(path, func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			resp.Error(c, apperr.Validation("invalid multipart form"))
			return
		}
		files := form.File[fieldName]
		if len(files) == 0 {
			resp.Error(c, apperr.Validation("no files uploaded"))
			return
		}
		if maxFiles > 0 && len(files) > maxFiles {
			resp.Error(c, apperr.Validation("too many files"))
			return
		}
		data, err := h(c, files)
		if err != nil {
			resp.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(data))
	})
}

var setupOnce sync.Once

// SetupValidator 注册自定义规则，并让错误里的字段名使用 json 名
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		if err := validate.Register(v); err != nil {
			panic(err)
		}
	})
}
