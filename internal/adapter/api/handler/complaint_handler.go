package handler

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/domain/status"
	"pasarloka/internal/usecase"
	"pasarloka/pkg/errors"
	"pasarloka/pkg/response"
	"pasarloka/pkg/utils"
)

type ComplaintHandler struct {
	complaintUseCase *usecase.ComplaintUseCase
}

func NewComplaintHandler(complaintUseCase *usecase.ComplaintUseCase) *ComplaintHandler {
	return &ComplaintHandler{
		complaintUseCase: complaintUseCase,
	}
}

type openComplaintRequest struct {
	PurchaseID string `json:"purchase_id" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
	Body       string `json:"body,omitempty"`
	Evidence   string `json:"evidence" validate:"required,url"`
}

func (h *ComplaintHandler) OpenComplaint(c echo.Context) error {
	var req openComplaintRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	buyerID := c.Get("uid").(string)

	complaint, err := h.complaintUseCase.OpenComplaint(c.Request().Context(), buyerID, usecase.OpenComplaintInput{
		PurchaseID: req.PurchaseID,
		Reason:     req.Reason,
		Body:       req.Body,
		Evidence:   req.Evidence,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, complaint)
}

type requestReturnRequest struct {
	ComplaintID string `json:"complaint_id" validate:"required"`
	LineItemID  string `json:"line_item_id" validate:"required"`
	Reason      string `json:"reason" validate:"required"`
	Description string `json:"description,omitempty"`
	Evidence    string `json:"evidence" validate:"required,url"`
}

func (h *ComplaintHandler) RequestReturn(c echo.Context) error {
	var req requestReturnRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	buyerID := c.Get("uid").(string)

	ret, err := h.complaintUseCase.RequestReturn(c.Request().Context(), buyerID, usecase.RequestReturnInput{
		ComplaintID: req.ComplaintID,
		LineItemID:  req.LineItemID,
		Reason:      req.Reason,
		Description: req.Description,
		Evidence:    req.Evidence,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, ret)
}

func (h *ComplaintHandler) GetComplaint(c echo.Context) error {
	complaintID := c.Param("id")
	if complaintID == "" {
		return response.Error(c, errors.BadRequest("Complaint ID is required", nil))
	}

	userID := c.Get("uid").(string)

	complaint, err := h.complaintUseCase.GetComplaintByID(c.Request().Context(), userID, complaintID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, complaint)
}

func (h *ComplaintHandler) ListComplaints(c echo.Context) error {
	st := c.QueryParam("status")
	pagination := utils.GetPaginationParams(c)
	adminID := c.Get("uid").(string)

	complaints, total, err := h.complaintUseCase.ListComplaints(c.Request().Context(), adminID, st, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, complaints, total, pagination.Page, pagination.PageSize)
}

type processComplaintRequest struct {
	Note string `json:"note,omitempty"`
}

func (h *ComplaintHandler) ProcessComplaint(c echo.Context) error {
	complaintID := c.Param("id")
	if complaintID == "" {
		return response.Error(c, errors.BadRequest("Complaint ID is required", nil))
	}

	var req processComplaintRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	adminID := c.Get("uid").(string)

	complaint, err := h.complaintUseCase.ProcessComplaint(c.Request().Context(), adminID, complaintID, req.Note)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, complaint)
}

type resolveComplaintRequest struct {
	Resolved bool   `json:"resolved"`
	Note     string `json:"note" validate:"required"`
}

func (h *ComplaintHandler) ResolveComplaint(c echo.Context) error {
	complaintID := c.Param("id")
	if complaintID == "" {
		return response.Error(c, errors.BadRequest("Complaint ID is required", nil))
	}

	var req resolveComplaintRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	adminID := c.Get("uid").(string)

	complaint, err := h.complaintUseCase.ResolveComplaint(c.Request().Context(), adminID, complaintID, req.Resolved, req.Note)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, complaint)
}

type processReturnRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected completed"`
}

func (h *ComplaintHandler) ProcessReturn(c echo.Context) error {
	returnID := c.Param("id")
	if returnID == "" {
		return response.Error(c, errors.BadRequest("Return ID is required", nil))
	}

	var req processReturnRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	adminID := c.Get("uid").(string)

	ret, err := h.complaintUseCase.ProcessReturn(c.Request().Context(), adminID, returnID, status.ReturnStatus(req.Status))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, ret)
}
