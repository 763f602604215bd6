package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hospital-access-backend/internal/errs"
	"hospital-access-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint    string `json:"endpoint" binding:"required"`
	RequesterID string `json:"requester_id" binding:"required"`
	P256DH      string `json:"p256dh" binding:"required"`
	Auth        string `json:"auth" binding:"required"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errs.Validation("invalid subscription: %v", err))
		return
	}

	sub := model.PushSubscription{
		Endpoint:    req.Endpoint,
		RequesterID: req.RequesterID,
		P256DH:      req.P256DH,
		Auth:        req.Auth,
	}
	if err := h.store.UpsertSubscription(c.Request.Context(), &sub); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "subscribed"})
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes a subscription by endpoint.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errs.Validation("invalid subscription delete: %v", err))
		return
	}
	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed"})
}

// GetVAPIDPublicKey exposes the public key browsers need to subscribe.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
