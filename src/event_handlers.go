package main

import (
	"net/http"
	"storefront/src/types"

	"github.com/gin-gonic/gin"
)

// inventoryHandlers are public: browsing availability needs no account.
func inventoryHandlers(g *gin.RouterGroup, svc *Services) *gin.RouterGroup {
	g.
		GET("/events/:id/inventory", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			list, err := svc.Orders.Inventory().EventStatus(ctx.Request.Context(), id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"event_id": id, "categories": list})
		}).
		GET("/categories/:id/availability", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			var query types.AvailabilityQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if query.Qty == 0 {
				query.Qty = 1
			}
			check, err := svc.Orders.Inventory().CheckAvailability(ctx.Request.Context(), id, query.Qty)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"available": check.OK(), "check": check})
		})
	return g
}

func eventHandlers(g *gin.RouterGroup, svc *Services) *gin.RouterGroup {
	g.
		GET("/events/:id/stats", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			orderStats, err := svc.Orders.Stats(ctx.Request.Context(), &id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ticketStats, err := svc.Tickets.Stats(ctx.Request.Context(), id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"orders": orderStats, "tickets": ticketStats})
		}).
		GET("/events/:id/low-stock", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			inv := svc.Orders.Inventory()
			low, err := inv.LowStock(ctx.Request.Context(), id, svc.Config.LowStockThreshold)
			if err != nil {
				respondError(ctx, err)
				return
			}
			soldOut, err := inv.SoldOut(ctx.Request.Context(), id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"threshold": svc.Config.LowStockThreshold,
				"low_stock": low,
				"sold_out":  soldOut,
			})
		}).
		PATCH("/categories/:id", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			var body types.UpdateCategoryRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.IsAvailable == nil && body.Capacity == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
				return
			}
			inv := svc.Orders.Inventory()
			var (
				st  any
				err error
			)
			if body.Capacity != nil {
				st, err = inv.SetCapacity(ctx.Request.Context(), id, *body.Capacity)
				if err != nil {
					respondError(ctx, err)
					return
				}
			}
			if body.IsAvailable != nil {
				st, err = inv.SetAvailability(ctx.Request.Context(), id, *body.IsAvailable)
				if err != nil {
					respondError(ctx, err)
					return
				}
			}
			ctx.JSON(http.StatusOK, st)
		})
	return g
}
