package ez

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"luxora/internal/core/apperr"
	"luxora/internal/core/database"
	resp "luxora/internal/transport/http/response"
	"luxora/pkg/utils"
)

type note struct {
	ID     string `gorm:"primaryKey;size:32" json:"id"`
	UserID string `gorm:"size:32;index" json:"userId"`
	Text   string `json:"text" binding:"required,max=20"`
	Pinned bool   `json:"pinned"`
}

func newEngine(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	SetupValidator()
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: "file:" + utils.NewID() + "?mode=memory&cache=shared", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&note{}))

	r := gin.New()
	g := r.Group("/api", func(c *gin.Context) {
		if uid := c.GetHeader("X-User"); uid != "" {
			c.Set("userId", uid)
			c.Set("role", c.GetHeader("X-Role"))
		}
	})
	Crud(CrudConfig[note]{DB: db, Group: g, Path: "/notes", New: func() *note { return &note{} }, MaxPerOwner: 2})
	return r, db
}

func do(r http.Handler, method, path, user string, body any) (*httptest.ResponseRecorder, resp.Resp) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out resp.Resp
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestCrudIsOwnerScoped(t *testing.T) {
	r, _ := newEngine(t)

	w, out := do(r, http.MethodPost, "/api/notes", "u1", map[string]any{"text": "hello", "pinned": true, "userId": "u2", "id": "forged"})
	require.Equal(t, http.StatusCreated, w.Code)
	data := out.Data.(map[string]any)
	id := data["id"].(string)
	assert.Equal(t, "u1", data["userId"])
	assert.NotEqual(t, "forged", id)

	w, _ = do(r, http.MethodGet, "/api/notes/"+id, "u2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, out = do(r, http.MethodPut, "/api/notes/"+id, "u1", map[string]any{"text": "edited", "pinned": false})
	require.Equal(t, http.StatusOK, w.Code)
	data = out.Data.(map[string]any)
	assert.Equal(t, "edited", data["text"])
	assert.Equal(t, false, data["pinned"])

	w, _ = do(r, http.MethodDelete, "/api/notes/"+id, "u2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = do(r, http.MethodDelete, "/api/notes/"+id, "u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCrudValidationAndLimits(t *testing.T) {
	r, _ := newEngine(t)

	w, out := do(r, http.MethodPost, "/api/notes", "u1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "text is required", out.Message)

	w, _ = do(r, http.MethodPost, "/api/notes", "", map[string]any{"text": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	do(r, http.MethodPost, "/api/notes", "u1", map[string]any{"text": "a"})
	do(r, http.MethodPost, "/api/notes", "u1", map[string]any{"text": "b"})
	w, _ = do(r, http.MethodPost, "/api/notes", "u1", map[string]any{"text": "c"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = do(r, http.MethodGet, "/api/notes?limit=1", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := out.Data.(map[string]any)
	assert.EqualValues(t, 2, data["total"])
	assert.Len(t, data["list"], 1)
}

func TestRegisterAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()
	r := gin.New()
	g := r.Group("", func(c *gin.Context) {
		if uid := c.GetHeader("X-User"); uid != "" {
			c.Set("userId", uid)
			c.Set("role", c.GetHeader("X-Role"))
		}
	})
	type in struct {
		Mobile string `json:"mobile" binding:"required,mobile"`
	}
	RegisterAction(New(g), Action[in, gin.H]{
		Method: http.MethodPost, Path: "/echo", Binder: BindJSON, Auth: true, Roles: []string{"admin"}, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *in) (gin.H, error) {
			if in.Mobile == "0000000000" {
				return nil, apperr.Conflict("taken")
			}
			return gin.H{"mobile": in.Mobile}, nil
		},
	})
	RegisterAction(New(g), Action[struct{}, gin.H]{
		Method: http.MethodGet, Path: "/boom", Binder: BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) { return nil, errors.New("driver: bad conn") },
	})

	send := func(role, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User", "u1")
		req.Header.Set("X-Role", role)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	assert.Equal(t, http.StatusForbidden, send("user", `{"mobile":"9876543210"}`).Code)
	assert.Equal(t, http.StatusCreated, send("admin", `{"mobile":"9876543210"}`).Code)
	assert.Equal(t, http.StatusBadRequest, send("admin", `{"mobile":"12"}`).Code)
	assert.Equal(t, http.StatusBadRequest, send("admin", ``).Code)
	assert.Equal(t, http.StatusConflict, send("admin", `{"mobile":"0000000000"}`).Code)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "bad conn")
}

func TestPOSTFILES(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	POSTFILES(New(r.Group("")), "/up", "images", 2, func(c *gin.Context, files []*multipart.FileHeader) (any, error) {
		return gin.H{"n": len(files)}, nil
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("images", "a.png")
	_, _ = fw.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/up", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"n":1`)

	req = httptest.NewRequest(http.MethodPost, "/up", bytes.NewBufferString("x"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
