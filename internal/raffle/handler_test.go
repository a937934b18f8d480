package raffle

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/amilz/mad-raffle/internal/platform/database"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDrawRouter(t *testing.T, db *gorm.DB, cfg config.RaffleConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Cfg = &config.Config{
		Raffle: cfg,
		Oracle: config.OracleConfig{PriceFeedKey: "oracle:price", StalenessThresholdSeconds: 60},
	}
	database.DB = db
	t.Cleanup(func() {
		config.Cfg = nil
		database.DB = nil
		database.RDB = nil
	})

	r := gin.New()
	r.POST("/raffle/:id/draw", SubmitDraw)
	return r
}

func TestSubmitDraw_NonceBody(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)
	closeFixtureRaffle(t, db, cfg)
	router := newDrawRouter(t, db, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/raffle/1/draw", strings.NewReader(`{"nonce":9}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dave")
}

func TestSubmitDraw_EmptyBodyUsesOracle(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)
	closeFixtureRaffle(t, db, cfg)
	router := newDrawRouter(t, db, cfg)

	// 不可达的Redis：预言机读取失败按数据过期处理
	database.RDB = redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

	// 空请求体不是格式错误，而是选择预言机熵源
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/raffle/1/draw", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubmitDraw_MalformedBody(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)
	router := newDrawRouter(t, db, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/raffle/1/draw", strings.NewReader(`{"nonce":`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
