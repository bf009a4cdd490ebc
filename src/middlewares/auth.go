package middlewares

import (
	"errors"
	"log"
	"net/http"
	"os"
	"storefront/src/models"
	"storefront/src/types"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

func JWTKey() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// AuthMiddleware accepts HS256 bearer tokens whose subject is a user id and
// stores the caller in the gin context.
func AuthMiddleware(gdb *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		bearerToken := ctx.Request.Header.Get("Authorization")
		reqToken, ok := strings.CutPrefix(bearerToken, "Bearer ")
		if !ok || strings.TrimSpace(reqToken) == "" {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims := &types.Claims{}
		tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return JWTKey(), nil
		})
		if err != nil || !tkn.Valid {
			if err != nil {
				log.Printf("token error: %s\n", err.Error())
			}
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		uid, err := strconv.Atoi(claims.Subject)
		if err != nil || uid < 1 {
			log.Println("error parsing claims:", claims.Subject)
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		var user models.User
		err = gdb.WithContext(ctx.Request.Context()).
			Model(&models.User{}).
			Where("id = ?", uid).
			First(&user).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("[Auth] could not load user %d: %s\n", uid, err.Error())
			}
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		ctx.Set("email", user.Email)
		ctx.Set("id", user.ID)
		ctx.Set("uid", user.UID)
		ctx.Set("role", string(user.Role))
	}
}

// RequireRole rejects callers whose role is not one of roles.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := types.Role(ctx.GetString("role"))
		for _, r := range roles {
			if r == role {
				ctx.Next()
				return
			}
		}
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	ctx.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	ctx.Next()
}
