package handler

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/domain/status"
	"pasarloka/internal/usecase"
	"pasarloka/pkg/errors"
	"pasarloka/pkg/response"
	"pasarloka/pkg/utils"
)

type PurchaseHandler struct {
	orderUseCase     *usecase.OrderUseCase
	complaintUseCase *usecase.ComplaintUseCase
}

func NewPurchaseHandler(orderUseCase *usecase.OrderUseCase, complaintUseCase *usecase.ComplaintUseCase) *PurchaseHandler {
	return &PurchaseHandler{
		orderUseCase:     orderUseCase,
		complaintUseCase: complaintUseCase,
	}
}

type checkoutItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type checkoutRequest struct {
	Items       []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	AddressID   string                `json:"address_id" validate:"required"`
	ShippingFee float64               `json:"shipping_fee" validate:"gte=0"`
	Note        string                `json:"note,omitempty"`
}

func (h *PurchaseHandler) Checkout(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	buyerID := c.Get("uid").(string)

	items := make([]usecase.CheckoutItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, usecase.CheckoutItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	purchase, payment, err := h.orderUseCase.Checkout(c.Request().Context(), buyerID, usecase.CheckoutInput{
		Items:       items,
		AddressID:   req.AddressID,
		ShippingFee: req.ShippingFee,
		Note:        req.Note,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]interface{}{
		"purchase": purchase,
		"payment":  payment,
	})
}

func (h *PurchaseHandler) GetPurchase(c echo.Context) error {
	purchaseID := c.Param("id")
	if purchaseID == "" {
		return response.Error(c, errors.BadRequest("Purchase ID is required", nil))
	}

	userID := c.Get("uid").(string)

	purchase, err := h.orderUseCase.GetPurchaseByID(c.Request().Context(), userID, purchaseID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, purchase)
}

func (h *PurchaseHandler) ListPurchases(c echo.Context) error {
	role := c.QueryParam("role")
	st := status.PurchaseStatus(c.QueryParam("status"))

	pagination := utils.GetPaginationParams(c)
	userID := c.Get("uid").(string)

	purchases, total, err := h.orderUseCase.ListPurchases(
		c.Request().Context(),
		userID,
		role,
		st,
		pagination.PageSize,
		pagination.Offset,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, purchases, total, pagination.Page, pagination.PageSize)
}

func (h *PurchaseHandler) GetPurchaseLogs(c echo.Context) error {
	purchaseID := c.Param("id")
	if purchaseID == "" {
		return response.Error(c, errors.BadRequest("Purchase ID is required", nil))
	}

	userID := c.Get("uid").(string)

	logs, err := h.orderUseCase.GetPurchaseLogs(c.Request().Context(), userID, purchaseID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, logs)
}

// GetAvailableActions reports which buttons the caller's client should render
// for this purchase, with complaint gating already applied.
func (h *PurchaseHandler) GetAvailableActions(c echo.Context) error {
	purchaseID := c.Param("id")
	if purchaseID == "" {
		return response.Error(c, errors.BadRequest("Purchase ID is required", nil))
	}

	userID := c.Get("uid").(string)

	actions, err := h.complaintUseCase.AvailableActions(c.Request().Context(), userID, purchaseID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, actions)
}

type shipPurchaseRequest struct {
	Courier        string `json:"courier" validate:"required"`
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

func (h *PurchaseHandler) ShipPurchase(c echo.Context) error {
	purchaseID := c.Param("id")
	if purchaseID == "" {
		return response.Error(c, errors.BadRequest("Purchase ID is required", nil))
	}

	var req shipPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	sellerID := c.Get("uid").(string)

	purchase, err := h.orderUseCase.ShipPurchase(c.Request().Context(), sellerID, purchaseID, req.Courier, req.TrackingNumber)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, purchase)
}

func (h *PurchaseHandler) ConfirmDelivery(c echo.Context) error {
	purchaseID := c.Param("id")
	if purchaseID == "" {
		return response.Error(c, errors.BadRequest("Purchase ID is required", nil))
	}

	buyerID := c.Get("uid").(string)

	purchase, err := h.orderUseCase.ConfirmDelivery(c.Request().Context(), buyerID, purchaseID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, purchase)
}

func (h *PurchaseHandler) CompletePurchase(c echo.Context) error {
	purchaseID := c.Param("id")
	if purchaseID == "" {
		return response.Error(c, errors.BadRequest("Purchase ID is required", nil))
	}

	buyerID := c.Get("uid").(string)

	purchase, err := h.orderUseCase.CompletePurchase(c.Request().Context(), buyerID, purchaseID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, purchase)
}

type cancelPurchaseRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *PurchaseHandler) CancelPurchase(c echo.Context) error {
	purchaseID := c.Param("id")
	if purchaseID == "" {
		return response.Error(c, errors.BadRequest("Purchase ID is required", nil))
	}

	var req cancelPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	actorID := c.Get("uid").(string)

	purchase, err := h.orderUseCase.CancelPurchase(c.Request().Context(), actorID, purchaseID, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, purchase)
}

type confirmPaymentRequest struct {
	GatewayRef string `json:"gateway_ref" validate:"required"`
}

func (h *PurchaseHandler) ConfirmPayment(c echo.Context) error {
	paymentID := c.Param("id")
	if paymentID == "" {
		return response.Error(c, errors.BadRequest("Payment ID is required", nil))
	}

	var req confirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actorID := c.Get("uid").(string)

	purchase, payment, err := h.orderUseCase.ConfirmPayment(c.Request().Context(), paymentID, req.GatewayRef, actorID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"purchase": purchase,
		"payment":  payment,
	})
}

func (h *PurchaseHandler) ReopenPayment(c echo.Context) error {
	paymentID := c.Param("id")
	if paymentID == "" {
		return response.Error(c, errors.BadRequest("Payment ID is required", nil))
	}

	adminID := c.Get("uid").(string)

	payment, err := h.orderUseCase.ReopenPayment(c.Request().Context(), adminID, paymentID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, payment)
}

type refundPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Reason string  `json:"reason" validate:"required"`
}

func (h *PurchaseHandler) RefundPayment(c echo.Context) error {
	paymentID := c.Param("id")
	if paymentID == "" {
		return response.Error(c, errors.BadRequest("Payment ID is required", nil))
	}

	var req refundPaymentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	adminID := c.Get("uid").(string)

	payment, err := h.orderUseCase.RefundPayment(c.Request().Context(), adminID, paymentID, req.Amount, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, payment)
}

func (h *PurchaseHandler) ListAllPurchases(c echo.Context) error {
	st := status.PurchaseStatus(c.QueryParam("status"))
	pagination := utils.GetPaginationParams(c)
	adminID := c.Get("uid").(string)

	purchases, total, err := h.orderUseCase.ListAllPurchases(c.Request().Context(), adminID, st, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, purchases, total, pagination.Page, pagination.PageSize)
}

type adminNoteRequest struct {
	Note string `json:"note" validate:"required"`
}

func (h *PurchaseHandler) SetAdminNote(c echo.Context) error {
	purchaseID := c.Param("id")
	if purchaseID == "" {
		return response.Error(c, errors.BadRequest("Purchase ID is required", nil))
	}

	var req adminNoteRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	adminID := c.Get("uid").(string)

	purchase, err := h.orderUseCase.SetAdminNote(c.Request().Context(), adminID, purchaseID, req.Note)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, purchase)
}
