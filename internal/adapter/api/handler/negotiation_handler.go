package handler

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/usecase"
	"pasarloka/pkg/errors"
	"pasarloka/pkg/response"
)

type NegotiationHandler struct {
	negotiationUseCase *usecase.NegotiationUseCase
}

func NewNegotiationHandler(negotiationUseCase *usecase.NegotiationUseCase) *NegotiationHandler {
	return &NegotiationHandler{
		negotiationUseCase: negotiationUseCase,
	}
}

type createOfferRequest struct {
	Price    float64 `json:"price" validate:"required,gt=0"`
	Quantity int     `json:"quantity" validate:"required,min=1"`
	Note     string  `json:"note,omitempty"`
}

func (h *NegotiationHandler) CreateOffer(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("Chat ID is required", nil))
	}

	var req createOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	buyerID := c.Get("uid").(string)

	message, err := h.negotiationUseCase.CreateOffer(c.Request().Context(), buyerID, usecase.CreateOfferInput{
		ChatID:   chatID,
		Price:    req.Price,
		Quantity: req.Quantity,
		Note:     req.Note,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

type respondOfferRequest struct {
	Accept bool   `json:"accept"`
	Note   string `json:"note,omitempty"`
}

func (h *NegotiationHandler) RespondToOffer(c echo.Context) error {
	chatID := c.Param("id")
	messageID := c.Param("messageId")
	if chatID == "" || messageID == "" {
		return response.Error(c, errors.BadRequest("Chat ID and message ID are required", nil))
	}

	var req respondOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	sellerID := c.Get("uid").(string)

	message, err := h.negotiationUseCase.RespondToOffer(c.Request().Context(), sellerID, chatID, messageID, req.Accept, req.Note)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

type convertOfferRequest struct {
	AddressID string `json:"address_id" validate:"required"`
	Quantity  int    `json:"quantity,omitempty" validate:"omitempty,min=1"`
}

// ConvertOffer turns an accepted offer into a purchase at the negotiated
// price. Safe to retry: replays return the purchase created the first time.
func (h *NegotiationHandler) ConvertOffer(c echo.Context) error {
	chatID := c.Param("id")
	messageID := c.Param("messageId")
	if chatID == "" || messageID == "" {
		return response.Error(c, errors.BadRequest("Chat ID and message ID are required", nil))
	}

	var req convertOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	buyerID := c.Get("uid").(string)

	purchase, err := h.negotiationUseCase.ConvertAcceptedOfferToPurchase(c.Request().Context(), buyerID, usecase.ConvertOfferInput{
		ChatID:    chatID,
		MessageID: messageID,
		AddressID: req.AddressID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, purchase)
}
