package main

import (
	"fmt"
	"log"
	"net/http"
	"storefront/src/lib"
	"storefront/src/types"
	"time"

	awslib "storefront/src/lib/aws"

	"github.com/gin-gonic/gin"
)

const qrcodeCacheTTL = awslib.PRESIGN_TTL - 5*time.Minute

func ticketHandlers(g *gin.RouterGroup, svc *Services) *gin.RouterGroup {
	g.
		GET("/tickets", func(ctx *gin.Context) {
			list, err := svc.Tickets.ListByUser(ctx.Request.Context(), ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"tickets": list, "count": len(list)})
		}).
		GET("/tickets/:id", func(ctx *gin.Context) {
			id, ok := bindUUID(ctx)
			if !ok {
				return
			}
			ticket, err := svc.Tickets.Get(ctx.Request.Context(), id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			if ticket.UserID != ctx.GetUint("id") && !isStaff(ctx) {
				respondError(ctx, types.ErrTicketNotFound)
				return
			}
			ctx.JSON(http.StatusOK, ticket)
		}).
		GET("/tickets/:id/qrcode", func(ctx *gin.Context) {
			id, ok := bindUUID(ctx)
			if !ok {
				return
			}
			ticket, err := svc.Tickets.Get(ctx.Request.Context(), id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			if ticket.UserID != ctx.GetUint("id") && !isStaff(ctx) {
				respondError(ctx, types.ErrTicketNotFound)
				return
			}
			if ticket.Status == types.TICKET_VOID {
				ctx.JSON(http.StatusGone, gin.H{"error": "ticket is void"})
				return
			}

			if awslib.AssetsBucket() != "" {
				key := fmt.Sprintf("qrcode:%s", ticket.ID)
				url, err := lib.CachedString(ctx.Request.Context(), svc.Redis, key, qrcodeCacheTTL, func() (string, error) {
					img, err := lib.RenderQRCode(ticket.QRPayload)
					if err != nil {
						return "", err
					}
					return awslib.S3UploadAsset(ctx.Request.Context(), fmt.Sprintf("qrcodes/%s.jpeg", ticket.ID), img, "image/jpeg")
				})
				if err == nil {
					ctx.Redirect(http.StatusFound, url)
					return
				}
				log.Printf("[QRCode] falling back to inline image for %s: %s\n", ticket.ID, err.Error())
			}

			img, err := lib.RenderQRCode(ticket.QRPayload)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Header("Cache-Control", "private, max-age=300")
			ctx.Data(http.StatusOK, "image/jpeg", img)
		})
	return g
}
