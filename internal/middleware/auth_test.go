package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeArt-PDD/beart-labs/internal/services"
)

type staticValidator map[string]*services.SessionClaims

func (v staticValidator) Validate(token string) (*services.SessionClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func newAuthEngine(handler func(*AuthMiddleware) gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	auth := NewAuthMiddleware(logger, staticValidator{
		"good": {Address: "0x196a28d05bA75C8dC35B0F6e71DD622D1aC82b7E", ChainID: 11155111},
	})

	r := gin.New()
	r.GET("/", handler(auth), func(c *gin.Context) {
		address, _ := c.Get(ContextUserAddress)
		chainID, _ := c.Get(ContextChainID)
		c.JSON(http.StatusOK, gin.H{"address": address, "chain_id": chainID})
	})
	return r
}

func get(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestOptionalAuth(t *testing.T) {
	r := newAuthEngine((*AuthMiddleware).OptionalAuth)

	rec := get(r, "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"address":"0x196a28d05bA75C8dC35B0F6e71DD622D1aC82b7E","chain_id":11155111}`, rec.Body.String())

	for _, header := range []string{"", "Bearer bad", "Basic good"} {
		rec = get(r, header)
		require.Equal(t, http.StatusOK, rec.Code, header)
		assert.JSONEq(t, `{"address":null,"chain_id":null}`, rec.Body.String(), header)
	}
}

func TestRequireAuth(t *testing.T) {
	r := newAuthEngine((*AuthMiddleware).RequireAuth)

	rec := get(r, "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "11155111")

	for header, code := range map[string]string{
		"":           "MISSING_AUTH_HEADER",
		"Basic good": "INVALID_AUTH_FORMAT",
		"Bearer ":    "EMPTY_TOKEN",
		"Bearer bad": "INVALID_TOKEN",
	} {
		rec = get(r, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Contains(t, rec.Body.String(), code, header)
	}
}
