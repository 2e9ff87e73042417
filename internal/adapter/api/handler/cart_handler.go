package handler

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/usecase"
	"pasarloka/pkg/errors"
	"pasarloka/pkg/response"
)

type CartHandler struct {
	cartUseCase *usecase.CartUseCase
}

func NewCartHandler(cartUseCase *usecase.CartUseCase) *CartHandler {
	return &CartHandler{
		cartUseCase: cartUseCase,
	}
}

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	item, err := h.cartUseCase.AddToCart(c.Request().Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, item)
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID := c.Get("uid").(string)

	items, err := h.cartUseCase.GetCart(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	itemID := c.Param("id")
	if itemID == "" {
		return response.Error(c, errors.BadRequest("Cart item ID is required", nil))
	}

	userID := c.Get("uid").(string)

	if err := h.cartUseCase.RemoveFromCart(c.Request().Context(), userID, itemID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "removed"})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.cartUseCase.ClearCart(c.Request().Context(), userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "cleared"})
}
