package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v81"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/developia-II/mercaplaza-backend/internal/adapters/repository"
	"github.com/developia-II/mercaplaza-backend/internal/adapters/transfer"
	"github.com/developia-II/mercaplaza-backend/internal/handlers"
	"github.com/developia-II/mercaplaza-backend/internal/services/payout"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if os.Getenv("GIN_MODE") == gin.ReleaseMode {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	db := connectDatabase()

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", os.Getenv("FRONTEND_URL")},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	var payoutSvc payout.Service
	var scheduler *payout.Scheduler
	if db != nil {
		payoutSvc = payout.NewService(
			repository.NewUserRepository(db),
			repository.NewPaymentRepository(db),
			repository.NewBankAccountRepository(db),
			repository.NewPayoutRepository(db),
			repository.NewDispersionConfigRepository(db),
			transfer.NewStripeProvider(os.Getenv("PAYOUT_CURRENCY")),
		)
		scheduler = payout.NewScheduler(
			payoutSvc,
			repository.NewDispersionConfigRepository(db),
			repository.NewPayoutRepository(db),
		)
		scheduler.Start()
	}

	handlers.SetupRoutes(router, db, payoutSvc, scheduler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logrus.Infof("Server listening on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Forced shutdown: %v", err)
	}
	logrus.Info("Server stopped")
}

func connectDatabase() *mongo.Database {
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		logrus.Warn("MONGODB_URI is not set")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI).SetServerSelectionTimeout(15 * time.Second)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		logrus.Errorf("Failed to create MongoDB client: %v", err)
		return nil
	}

	if err := client.Ping(ctx, nil); err != nil {
		logrus.Errorf("Failed to connect to MongoDB: %v", err)
		return nil
	}

	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "mercaplaza"
	}

	logrus.Infof("Connected to MongoDB database %q", dbName)
	return client.Database(dbName)
}
