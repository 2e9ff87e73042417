package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"pasarloka/internal/adapter/api"
	"pasarloka/internal/adapter/api/handler"
	apimiddleware "pasarloka/internal/adapter/api/middleware"
	"pasarloka/internal/adapter/api/router"
	"pasarloka/internal/adapter/repository"
	"pasarloka/internal/infrastructure/firebase"
	"pasarloka/internal/infrastructure/ratelimit"
	"pasarloka/internal/infrastructure/storage"
	"pasarloka/internal/infrastructure/websocket"
	"pasarloka/internal/usecase"
	"pasarloka/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	var serviceAccountPath string

	// Service account comes from the environment in production, from a file
	// path during local development.
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, serviceAccountPath)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	productRepo := repository.NewFirestoreProductRepository(firestoreClient)
	reviewRepo := repository.NewFirestoreReviewRepository(firestoreClient)
	purchaseRepo := repository.NewFirestorePurchaseRepository(firestoreClient)
	paymentRepo := repository.NewFirestorePaymentRepository(firestoreClient)
	complaintRepo := repository.NewFirestoreComplaintRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	cartRepo := repository.NewFirestoreCartRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient, cfg.FirebaseApiKey)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	userUseCase := usecase.NewUserUseCase(userRepo, firebaseAuthClient)
	productUseCase := usecase.NewProductUseCase(productRepo, userRepo)
	reviewUseCase := usecase.NewReviewUseCase(reviewRepo, purchaseRepo, complaintRepo, userRepo)
	orderUseCase := usecase.NewOrderUseCase(purchaseRepo, paymentRepo, complaintRepo, productRepo, userRepo)
	complaintUseCase := usecase.NewComplaintUseCase(complaintRepo, purchaseRepo, userRepo)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, productRepo, wsManager)
	negotiationUseCase := usecase.NewNegotiationUseCase(chatRepo, purchaseRepo, paymentRepo, productRepo, userRepo, wsManager)
	cartUseCase := usecase.NewCartUseCase(cartRepo, productRepo)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine()

	handler.Setup(
		userUseCase,
		productUseCase,
		reviewUseCase,
		orderUseCase,
		complaintUseCase,
		chatUseCase,
		negotiationUseCase,
		cartUseCase,
		storageClient,
		wsManager,
	)
	handler.SetupHealthHandler(firestoreClient)
	handler.SetupWebSocketHandler(wsManager, chatUseCase, authMiddleware)

	router.Setup(e, authMiddleware, adminMiddleware, limiter)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
