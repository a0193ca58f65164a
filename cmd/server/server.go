package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/database"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/gateway"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/handlers"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/middleware"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/rooms"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/websocket"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	bus := gateway.NewBus(rdb)
	store := gateway.NewMessageStore(dbConn, bus)
	resolver := rooms.NewResolver(dbConn)
	directory := rooms.NewDirectory(dbConn)
	registry := websocket.NewRegistry()

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	userH := handlers.NewUserHandler(dbConn)
	convH := handlers.NewConversationHandler(dbConn, resolver, directory, store, registry)
	wsH := handlers.NewWebSocketHandler(dbConn, bus, store, registry)

	router := gin.Default()
	APIEndpoints(router, authH, userH, convH, wsH, middleware.AuthMiddleware(jwtMgr, rdb), middleware.WSAuthMiddleware(jwtMgr, rdb))

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
