package main

import (
	"log"
	"net/http"
	"storefront/src/types"

	"github.com/gin-gonic/gin"
)

func admissionHandlers(g *gin.RouterGroup, svc *Services) *gin.RouterGroup {
	g.
		POST("/admission/validate", func(ctx *gin.Context) {
			var body types.ValidateTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			code, err := svc.Tickets.ResolveCode(body.Code, body.Payload)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			v, err := svc.Tickets.Validate(ctx.Request.Context(), code)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, v)
		}).
		POST("/admission", func(ctx *gin.Context) {
			var body types.RedeemTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			code, err := svc.Tickets.ResolveCode(body.Code, body.Payload)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			v, err := svc.Tickets.Redeem(ctx.Request.Context(), code, body.GateID, ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, err)
				return
			}
			if !v.Valid {
				log.Printf("[Admission] rejected %s: %s\n", code, v.Reason)
			}
			ctx.JSON(http.StatusOK, v)
		})
	return g
}
