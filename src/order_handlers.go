package main

import (
	"log"
	"net/http"
	"storefront/src/models"
	"storefront/src/types"

	"github.com/gin-gonic/gin"
)

func orderHandlers(g *gin.RouterGroup, svc *Services) *gin.RouterGroup {
	g.
		POST("/orders", func(ctx *gin.Context) {
			var body types.CreateOrderRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			checkout, err := svc.Orders.CreateOrder(ctx.Request.Context(), ctx.GetUint("id"), body.Cart, body.Customer)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, checkout)
		}).
		GET("/orders", func(ctx *gin.Context) {
			var query types.OrdersQueryFilters
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			list, err := svc.Orders.ListByUser(ctx.Request.Context(), ctx.GetUint("id"), types.OrderStatus(query.Status))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
		}).
		GET("/orders/:id", func(ctx *gin.Context) {
			id, ok := bindUUID(ctx)
			if !ok {
				return
			}
			var (
				order *models.Order
				err   error
			)
			if isStaff(ctx) {
				order, err = svc.Orders.Get(ctx.Request.Context(), id)
			} else {
				order, err = svc.Orders.GetForUser(ctx.Request.Context(), id, ctx.GetUint("id"))
			}
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, order)
		}).
		GET("/orders/:id/payment", func(ctx *gin.Context) {
			id, ok := bindUUID(ctx)
			if !ok {
				return
			}
			if _, err := svc.Orders.GetForUser(ctx.Request.Context(), id, ctx.GetUint("id")); err != nil {
				respondError(ctx, err)
				return
			}
			status, err := svc.Payments.PaymentStatus(ctx.Request.Context(), id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, status)
		}).
		POST("/orders/:id/cancel", func(ctx *gin.Context) {
			id, ok := bindUUID(ctx)
			if !ok {
				return
			}
			order, err := svc.Orders.Cancel(ctx.Request.Context(), id, ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, order)
		})
	return g
}

func refundHandlers(g *gin.RouterGroup, svc *Services) *gin.RouterGroup {
	g.POST("/orders/:id/refund", func(ctx *gin.Context) {
		id, ok := bindUUID(ctx)
		if !ok {
			return
		}
		var body types.RefundRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := svc.Payments.ProcessRefund(ctx.Request.Context(), id, body.Amount, body.Reason)
		if err != nil {
			respondError(ctx, err)
			return
		}
		log.Printf("[Refund] order %s refunded by user %d\n", result.Order.Reference, ctx.GetUint("id"))
		ctx.JSON(http.StatusOK, result)
	})
	return g
}
