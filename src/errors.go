package main

import (
	"errors"
	"log"
	"net/http"
	"storefront/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps service errors onto HTTP statuses.
func respondError(ctx *gin.Context, err error) {
	var inv *types.InventoryError
	switch {
	case errors.As(err, &inv):
		ctx.JSON(http.StatusConflict, gin.H{
			"error":       err.Error(),
			"category_id": inv.CategoryID,
			"category":    inv.Category,
			"requested":   inv.Requested,
			"remaining":   inv.Remaining,
			"reason":      inv.Reason,
		})
	case errors.Is(err, types.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrIllegalTransition), errors.Is(err, types.ErrCapacityBelowSold):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrInvalidCart), errors.Is(err, types.ErrInvalidRefund):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrExternalDependency):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrAlreadyProcessed):
		ctx.JSON(http.StatusOK, gin.H{"status": "already processed"})
	default:
		log.Printf("[API] %s %s: %s\n", ctx.Request.Method, ctx.FullPath(), err.Error())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func bindUUID(ctx *gin.Context) (uuid.UUID, bool) {
	var params types.UUIDRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return uuid.Nil, false
	}
	return uuid.MustParse(params.ID), true
}

func bindID(ctx *gin.Context) (uint, bool) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return params.ID, true
}

func isStaff(ctx *gin.Context) bool {
	switch types.Role(ctx.GetString("role")) {
	case types.ROLE_STAFF, types.ROLE_ORGANIZER, types.ROLE_ADMIN:
		return true
	}
	return false
}
