package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chatrooms-service/internal/auth"
	"chatrooms-service/internal/db"
	"chatrooms-service/internal/handlers"
	"chatrooms-service/internal/middleware"
	"chatrooms-service/internal/observability"
	"chatrooms-service/internal/rabbitmq"
	"chatrooms-service/internal/repositories"
	"chatrooms-service/internal/services"
	"chatrooms-service/internal/telemetry"
	"chatrooms-service/internal/views"
	"chatrooms-service/internal/ws"
)

const serviceName = "chatrooms-service"

func main() {
	ctx := context.Background()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(ctx, serviceName, getEnv("OTLP_ENDPOINT", ""))
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	amqpURL := getEnv("AMQP_URL", "")
	exchange := getEnv("AMQP_EXCHANGE", "chat_events")

	eventPublisher, err := observability.NewAMQPPublisher(amqpURL, exchange)
	if err != nil {
		log.Printf("event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(amqpURL, exchange)
	defer auditPublisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.chatrooms", serviceName, getEnv("ENVIRONMENT", "dev"))

	renderer, err := views.NewTemplateRenderer()
	if err != nil {
		log.Fatalf("failed to parse view templates: %v", err)
	}

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)

	hub := ws.NewHub()
	guard := services.NewGuard(chatRepo)
	history := services.NewHistoryService(guard, messageRepo, userRepo)
	pipeline := services.NewPipeline(guard, messageRepo, userRepo, renderer, hub)

	verifier := auth.NewJWTVerifier(getEnv("JWT_SECRET", "dev-secret"))

	chatHandler := handlers.NewChatHandler(chatRepo, guard, history, pipeline)
	liveHandler := ws.NewLiveHandler(hub, guard, pipeline, verifier)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.POST("/chats", authMiddleware, chatHandler.CreateChat)
	router.GET("/chats/:chat_id", authMiddleware, chatHandler.GetChatDetails)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetMessages)
	router.GET("/chats/:chat_id/messages/last", authMiddleware, chatHandler.GetLastMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, chatHandler.PostMessage)

	router.GET("/ws/chats/:chat_id", liveHandler.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditEmitter, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
