package main

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"storefront/src/boot"
	"storefront/src/common"
	"storefront/src/config"
	"storefront/src/lib"
	"storefront/src/lib/mailer"
	"storefront/src/middlewares"
	"storefront/src/notify"
	"storefront/src/orders"
	"storefront/src/payments"
	"storefront/src/tickets"
	"storefront/src/types"
	"storefront/src/utils"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	apiPrefix string = "/api/v1"
)

var ticketCodeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	code, ok := fl.Field().Interface().(string)
	if !ok || len(code) != tickets.CODE_LENGTH {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(utils.CODE_ALPHABET, r) {
			return false
		}
	}
	return true
}

// Services bundles what the HTTP handlers need.
type Services struct {
	DB       *gorm.DB
	Config   config.Storefront
	Orders   *orders.Service
	Tickets  *tickets.Service
	Payments *payments.Bridge
	Notify   *notify.Service
	Redis    *redis.Client
}

type Deps struct {
	DB        *gorm.DB
	Config    config.Storefront
	QRKey     []byte
	Provider  orders.PaymentProvider
	Refunder  payments.Refunder
	Publisher orders.Publisher
	Mailer    notify.Mailer
	Redis     *redis.Client
}

func NewServices(d Deps) *Services {
	ticketSvc := tickets.NewService(d.DB, d.QRKey, d.Config.TicketGracePeriod)
	notifySvc := notify.NewService(d.DB, d.Mailer,
		notify.WithSender(os.Getenv("MAIL_FROM"), os.Getenv("MAIL_FROM_NAME")),
		notify.WithAppHost(os.Getenv("APP_HOST")),
		notify.WithReminderWindow(d.Config.PaymentReminderWindow),
	)
	orderSvc := orders.NewService(d.DB, d.Config, d.Provider, ticketSvc)
	bridge := payments.NewBridge(d.DB, orderSvc, ticketSvc).
		WithNotifier(notifySvc)
	if d.Publisher != nil {
		orderSvc.WithPublisher(d.Publisher)
		bridge.WithPublisher(d.Publisher)
	}
	if d.Refunder != nil {
		bridge.WithRefunder(d.Refunder)
	}
	if d.Redis != nil {
		bridge.WithDedup(d.Redis)
	}
	return &Services{
		DB:       d.DB,
		Config:   d.Config,
		Orders:   orderSvc,
		Tickets:  ticketSvc,
		Payments: bridge,
		Notify:   notifySvc,
		Redis:    d.Redis,
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		if mm == "" {
			return
		}
		on, err := strconv.ParseBool(mm)
		if err != nil || on {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	})
	return g
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("ticketcode", ticketCodeValidatorFunc)
	}
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func setupRoutes(router *gin.Engine, svc *Services) {
	public := apiv1Group(router)
	inventoryHandlers(public, svc)
	stripeWebhookRoute(public, svc)

	authorized := apiv1Group(router)
	authorized.Use(middlewares.AuthMiddleware(svc.DB))
	orderHandlers(authorized, svc)
	ticketHandlers(authorized, svc)

	staff := apiv1Group(router)
	staff.Use(middlewares.AuthMiddleware(svc.DB), middlewares.RequireRole(types.ROLE_STAFF, types.ROLE_ORGANIZER, types.ROLE_ADMIN))
	refundHandlers(staff, svc)
	admissionHandlers(staff, svc)
	eventHandlers(staff, svc)
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	if err := os.MkdirAll(path.Join(cwd, "logs"), 0o755); err != nil {
		log.Printf("Could not create logs directory: %s\n", err.Error())
		return
	}
	f, err := os.Create(apiLogs)
	if err == nil {
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}))
}

func corsMiddleware(apiEnv string) gin.HandlerFunc {
	if apiEnv == "local" {
		return cors.Default()
	}
	appHost := os.Getenv("APP_HOST")
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization", "Stripe-Signature")
	cc.AllowOriginFunc = func(origin string) bool {
		return appHost != "" && origin == appHost
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	return cors.New(cc)
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	config.API_ENV = apiEnv
	if config.IsLocal() {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	if config.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	initLogger()

	cfg := config.Load()
	qrKey, err := hex.DecodeString(os.Getenv("API_QRC_SECRET"))
	if err != nil || len(qrKey) != 32 {
		log.Fatalf("API_QRC_SECRET must be a hex encoded 32 byte key")
	}

	gdb := boot.InitDb()
	publisher := boot.InitPublisher(os.Getenv("EVENTS_BROKER"))
	if c, ok := publisher.(interface{ Close() }); ok {
		defer c.Close()
	}
	mail, err := mailer.NewMailer(os.Getenv("MAIL_TRANSPORT"), publisher)
	if err != nil {
		log.Fatalf("Mailer: %s", err.Error())
	}
	stripePayments := lib.NewStripePayments(nil)

	svc := NewServices(Deps{
		DB:        gdb,
		Config:    cfg,
		QRKey:     qrKey,
		Provider:  stripePayments,
		Refunder:  stripePayments,
		Publisher: publisher,
		Mailer:    mail,
		Redis:     lib.GetRedisClient(),
	})

	boot.InitScheduler(gdb, boot.Jobs{
		Sweep:                 svc.Orders.ProcessExpiredOrders,
		SweepInterval:         cfg.SweepInterval,
		PaymentReminders:      svc.Notify.SchedulePaymentReminders,
		PaymentReminderWindow: cfg.PaymentReminderWindow,
		EventReminders:        svc.Notify.ScheduleEventReminders,
	})
	defer boot.StopScheduler()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if queue := os.Getenv("PAYMENT_EVENTS_QUEUE"); queue != "" {
		if _, err := common.PaymentEventsConsumer(ctx, queue, svc.Payments); err != nil {
			log.Printf("[PaymentEvents] consumer not started: %s\n", err.Error())
		}
	}

	router := setupRouter()
	router.Use(corsMiddleware(apiEnv))
	registerValidators()
	router = maintenanceModeMiddleware(router)
	setupRoutes(router, svc)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %s\n", err.Error())
	}
}
