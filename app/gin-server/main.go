package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/papelariadigital/atendente/config"
	"github.com/papelariadigital/atendente/internal/api/handlers"
	"github.com/papelariadigital/atendente/internal/api/middleware"
	"github.com/papelariadigital/atendente/internal/api/routes"
	"github.com/papelariadigital/atendente/internal/cache"
	"github.com/papelariadigital/atendente/internal/catalog"
	"github.com/papelariadigital/atendente/internal/logger"
	"github.com/papelariadigital/atendente/internal/models"
	"github.com/papelariadigital/atendente/internal/providers/llm"
	"github.com/papelariadigital/atendente/internal/providers/payment"
	"github.com/papelariadigital/atendente/internal/providers/shipping"
	mongorepo "github.com/papelariadigital/atendente/internal/repositories/mongo"
	pgrepo "github.com/papelariadigital/atendente/internal/repositories/postgres"
	"github.com/papelariadigital/atendente/internal/services"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.PostgresDB.AutoMigrate(&models.ConversationLog{}); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}

	ctx := context.Background()
	model, err := llm.NewVertexGemini(ctx,
		os.Getenv("VERTEX_PROJECT_ID"),
		os.Getenv("VERTEX_LOCATION"),
		os.Getenv("VERTEX_MODEL"),
	)
	if err != nil {
		log.Fatalf("Vertex init error: %v", err)
	}
	defer model.Close()

	produtosPath := os.Getenv("PRODUTOS_PATH")
	if produtosPath == "" {
		produtosPath = "produtos.json"
	}
	loadCatalog := func() (*catalog.Index, error) { return catalog.LoadFile(produtosPath) }

	redisCache := cache.NewRedisCache(config.RedisClient)

	sessionRepo := mongorepo.NewSessionRepo(config.MongoDatabase())
	convoRepo := pgrepo.NewConversationRepo(config.PostgresDB)

	ship := shipping.NewMelhorEnvio(
		getenv("MELHOR_ENVIO_URL", "https://sandbox.melhorenvio.com.br"),
		os.Getenv("MELHOR_ENVIO_TOKEN"),
		l,
	)
	pay := payment.NewPixBridge(
		os.Getenv("PIX_BRIDGE_URL"),
		os.Getenv("PIX_BRIDGE_TOKEN"),
		l,
	)

	convoSvc := services.NewConversationService(convoRepo)
	sessionSvc := services.NewSessionService(sessionRepo)
	checkoutSvc := services.NewCheckoutService(sessionRepo, loadCatalog, ship, pay, redisCache, l)
	chatSvc := services.NewChatService(sessionRepo, convoSvc, checkoutSvc, model, loadCatalog, redisCache, l)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Chat:    handlers.NewChatHandler(chatSvc),
		Payment: handlers.NewPaymentHandler(pay),
		Session: handlers.NewSessionHandler(sessionSvc, redisCache),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
