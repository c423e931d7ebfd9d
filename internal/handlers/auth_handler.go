package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BeArt-PDD/beart-labs/internal/dto"
	"github.com/BeArt-PDD/beart-labs/internal/middleware"
	"github.com/BeArt-PDD/beart-labs/internal/services"
	"github.com/BeArt-PDD/beart-labs/internal/siwe"
)

// AuthHandler serves the Sign-In with Ethereum endpoints
type AuthHandler struct {
	signIn *services.SignInService
	logger *logrus.Logger
}

// NewAuthHandler create auth handler
func NewAuthHandler(signIn *services.SignInService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{signIn: signIn, logger: logger}
}

// GenerateNonceHandler GET /api/auth/nonce
func (h *AuthHandler) GenerateNonceHandler(c *gin.Context) {
	value, expiresAt, err := h.signIn.IssueNonce(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("❌ Nonce issue failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "nonce_unavailable",
			Message: "Could not issue a nonce, try again later",
		})
		return
	}

	if address, ok := c.Get(middleware.ContextUserAddress); ok {
		h.logger.WithField("user_address", address).Debug("Nonce requested by a signed-in caller")
	}

	c.JSON(http.StatusOK, dto.NonceResponse{
		Success:   true,
		Nonce:     value,
		ExpiresAt: expiresAt.UTC(),
	})
}

// PrepareMessageHandler POST /api/auth/siwe/message
func (h *AuthHandler) PrepareMessageHandler(c *gin.Context) {
	var req dto.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	text, msg, err := h.signIn.PrepareMessage(c.Request.Context(), services.MessageRequest{
		Address:   req.Address,
		ChainID:   req.ChainID,
		Statement: req.Statement,
		RequestID: req.RequestID,
		Resources: req.Resources,
	})
	switch {
	case errors.Is(err, siwe.ErrInvalidField), errors.Is(err, services.ErrChainNotAccepted):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_message_fields",
			Message: err.Error(),
		})
		return
	case err != nil:
		h.logger.WithError(err).Error("❌ Message preparation failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "nonce_unavailable",
			Message: "Could not prepare a sign-in message, try again later",
		})
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Success:        true,
		Message:        text,
		Nonce:          msg.Nonce,
		IssuedAt:       msg.IssuedAt,
		ExpirationTime: msg.ExpirationTime,
	})
}

// VerifyHandler POST /api/auth/siwe/verify
func (h *AuthHandler) VerifyHandler(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.VerifyResponse{
			Success: false,
			Reason:  "invalid_request",
			Message: err.Error(),
		})
		return
	}

	result, session, err := h.signIn.Authenticate(c.Request.Context(), req.Message, req.Signature, req.Address)
	if errors.Is(err, services.ErrSessionUnavailable) {
		c.JSON(http.StatusInternalServerError, dto.VerifyResponse{
			Success: false,
			Reason:  "session_unavailable",
			Message: "Sign-in could not be completed, request a new message and sign again",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.VerifyResponse{
			Success: false,
			Message: "Sign-in is temporarily unavailable",
		})
		return
	}

	if !result.Accepted {
		c.JSON(http.StatusUnauthorized, dto.VerifyResponse{
			Success: false,
			Reason:  string(result.Reason),
			Message: result.Detail,
		})
		return
	}

	c.JSON(http.StatusOK, dto.VerifyResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: &session.ExpiresAt,
		Address:   result.Address,
		ChainID:   result.ChainID,
		Message:   "success",
	})
}

// MeHandler GET /api/auth/me, behind RequireAuth
func (h *AuthHandler) MeHandler(c *gin.Context) {
	claims, ok := c.Get(middleware.ContextClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthenticated"})
		return
	}
	session := claims.(*services.SessionClaims)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"address":    session.Address,
		"chain_id":   session.ChainID,
		"session_id": session.ID,
		"expires_at": session.ExpiresAt.Time.UTC(),
	})
}

// Sweeper removes expired nonces on demand.
type Sweeper interface {
	SweepNow(ctx context.Context) (int64, error)
}

// SweepNoncesHandler POST /admin/nonces/sweep
func SweepNoncesHandler(sweeper Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		swept, err := sweeper.SweepNow(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "sweep_failed",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "swept": swept})
	}
}
