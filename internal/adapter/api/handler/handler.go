package handler

import (
	"pasarloka/internal/infrastructure/storage"
	ws "pasarloka/internal/infrastructure/websocket"
	"pasarloka/internal/usecase"
)

var (
	authHandler        *AuthHandler
	userHandler        *UserHandler
	productHandler     *ProductHandler
	reviewHandler      *ReviewHandler
	purchaseHandler    *PurchaseHandler
	complaintHandler   *ComplaintHandler
	chatHandler        *ChatHandler
	negotiationHandler *NegotiationHandler
	cartHandler        *CartHandler
	fileHandler        *FileHandler
)

func Setup(
	userUseCase *usecase.UserUseCase,
	productUseCase *usecase.ProductUseCase,
	reviewUseCase *usecase.ReviewUseCase,
	orderUseCase *usecase.OrderUseCase,
	complaintUseCase *usecase.ComplaintUseCase,
	chatUseCase *usecase.ChatUseCase,
	negotiationUseCase *usecase.NegotiationUseCase,
	cartUseCase *usecase.CartUseCase,
	storageClient *storage.CloudStorageClient,
	wsManager *ws.Manager,
) {
	authHandler = NewAuthHandler(userUseCase)
	userHandler = NewUserHandler(userUseCase)
	productHandler = NewProductHandler(productUseCase)
	reviewHandler = NewReviewHandler(reviewUseCase)
	purchaseHandler = NewPurchaseHandler(orderUseCase, complaintUseCase)
	complaintHandler = NewComplaintHandler(complaintUseCase)
	chatHandler = NewChatHandler(chatUseCase, wsManager)
	negotiationHandler = NewNegotiationHandler(negotiationUseCase)
	cartHandler = NewCartHandler(cartUseCase)
	fileHandler = NewFileHandler(storageClient)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetProductHandler() *ProductHandler {
	return productHandler
}

func GetReviewHandler() *ReviewHandler {
	return reviewHandler
}

func GetPurchaseHandler() *PurchaseHandler {
	return purchaseHandler
}

func GetComplaintHandler() *ComplaintHandler {
	return complaintHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetNegotiationHandler() *NegotiationHandler {
	return negotiationHandler
}

func GetCartHandler() *CartHandler {
	return cartHandler
}

func GetFileHandler() *FileHandler {
	return fileHandler
}
