package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/auth"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/config"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/db"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/fanout"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/handlers"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/mailer"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/middleware"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/observability"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/rabbitmq"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/repositories"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/telemetry"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/ws"
)

const serviceName = "lostfound-realtime"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), serviceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	conversationRepo := repositories.NewConversationRepo(database)
	itemRepo := repositories.NewItemRepo(database)
	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)

	var authenticator auth.Authenticator
	if cfg.JWTSecret != "" {
		authenticator = auth.NewJWTAuthenticator(cfg.JWTSecret)
	} else {
		log.Printf("JWT_SECRET not set, trusting presented user ids")
		authenticator = auth.TrustPresented{}
	}

	mail := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		StartTLS: cfg.SMTPStartTLS,
		Timeout:  cfg.SideEffectTimeout,
	})

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		log.Printf("ws event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s reason=%q", rabbitmq.PublisherMode(auditPublisher), rabbitmq.PublisherNoopReason(auditPublisher))
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.realtime", serviceName, cfg.Environment)

	hub := ws.NewHub()
	pipeline := fanout.NewPipeline(hub, conversationRepo, itemRepo, userRepo, notificationRepo, mail, cfg.SideEffectTimeout)
	socketHandler := ws.NewSocketHandler(hub, authenticator, pipeline, ws.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		HandshakeTimeout: cfg.HandshakeTimeout,
		PingInterval:     cfg.PingInterval,
		PongWait:         cfg.PongWait,
	})

	messageHandler := handlers.NewMessageHandler(conversationRepo, messageRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authenticator)

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/conversations/:conversation_id/messages", authMiddleware, messageHandler.PostMessage)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, messageHandler.ListMessages)
	router.GET("/notifications", authMiddleware, notificationHandler.ListNotifications)
	router.PATCH("/notifications/:notification_id/read", authMiddleware, notificationHandler.MarkNotificationRead)

	router.GET("/ws", socketHandler.Handle)

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
