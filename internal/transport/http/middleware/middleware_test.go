package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-chat-moderation/internal/core/auth"
	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/transport/http/ez"
	resp "go-gin-chat-moderation/internal/transport/http/response"
)

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, resp.Resp) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out resp.Resp
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestAuthJWTExposesCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := &auth.JWTer{Secret: []byte("k"), Issuer: "test", TTL: time.Minute}
	r := gin.New()
	r.GET("/x", AuthJWT(j, domain.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, resp.OK(gin.H{"uid": ez.UserID(c), "role": c.GetString(ez.KeyRole)}))
	})

	tok, err := j.Issue(9, domain.RoleAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	_, out := serve(r, req)
	assert.Equal(t, resp.CodeOK, out.Code)
	assert.Equal(t, map[string]any{"uid": float64(9), "role": "admin"}, out.Data)

	userTok, err := j.Issue(4, domain.RoleUser)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+userTok)
	_, out = serve(r, req)
	assert.Equal(t, resp.CodeForbidden, out.Code)

	_, out = serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, resp.CodeUnauthorized, out.Code)
}

type stubChecker struct{ err error }

func (s stubChecker) EnsureActive(_ context.Context, id uint) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: id}, nil
}

func TestActiveUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	build := func(chk ActiveChecker) *gin.Engine {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { c.Set(ez.KeyUserID, uint(5)) }, ActiveUser(chk), func(c *gin.Context) {
			u, _ := c.Get(KeyUser)
			c.JSON(http.StatusOK, resp.OK(gin.H{"id": u.(*domain.User).ID}))
		})
		return r
	}

	_, out := serve(build(stubChecker{}), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, resp.CodeOK, out.Code)

	_, out = serve(build(stubChecker{err: domain.ErrBanned}), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, resp.CodeForbidden, out.Code)
	assert.Equal(t, "account banned", out.Msg)
}

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RateLimitPerIP(0.001, 2), func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })

	for i := 0; i < 2; i++ {
		_, out := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, resp.CodeOK, out.Code)
	}
	_, out := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, resp.CodeTooMany, out.Code)

	other := httptest.NewRequest(http.MethodGet, "/x", nil)
	other.RemoteAddr = "198.51.100.7:4000"
	_, out = serve(r, other)
	assert.Equal(t, resp.CodeOK, out.Code, "separate bucket per ip")
}

func TestRequestIDRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get(KeyRequestID))
	assert.Equal(t, w.Header().Get(KeyRequestID), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "abc-123")
	w, _ = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(KeyRequestID))
}

func TestTimeoutAnswersWhenHandlerIsSilent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", Timeout(10*time.Millisecond), func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	_, out := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, resp.CodeTimeout, out.Code)
}

func TestIPLimiterEvictsIdleBuckets(t *testing.T) {
	clock := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(0.001, 1, time.Minute, 100)
	l.now = func() time.Time { return clock }

	assert.True(t, l.bucket("192.0.2.1").Allow())
	assert.False(t, l.bucket("192.0.2.1").Allow())
	l.bucket("192.0.2.2")
	require.Len(t, l.buckets, 2)

	clock = clock.Add(2 * time.Minute)
	assert.True(t, l.bucket("192.0.2.1").Allow(), "idle bucket was dropped and starts full")
	assert.Len(t, l.buckets, 1)
}

func TestIPLimiterIsBounded(t *testing.T) {
	clock := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(1, 1, time.Hour, 3)
	l.now = func() time.Time { return clock }

	for _, ip := range []string{"192.0.2.1", "192.0.2.2", "192.0.2.3", "192.0.2.4"} {
		l.bucket(ip)
		clock = clock.Add(time.Second)
	}
	assert.Len(t, l.buckets, 3)
	assert.NotContains(t, l.buckets, "192.0.2.1", "least recently seen goes first")
	assert.Contains(t, l.buckets, "192.0.2.4")
}
