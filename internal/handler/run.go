package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/vidscribe/api/internal/middleware"
	"github.com/vidscribe/api/internal/model"
	"github.com/vidscribe/api/internal/service"
	"github.com/vidscribe/api/pkg/response"
)

type RunHandler struct {
	service   *service.RunService
	validator *validator.Validate
}

func NewRunHandler(svc *service.RunService, v *validator.Validate) *RunHandler {
	return &RunHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/run/start
func (h *RunHandler) Start(c *fiber.Ctx) error {
	var req model.RunStartRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.StartRun(c.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/run/status/:runId
func (h *RunHandler) Status(c *fiber.Ctx) error {
	runID := c.Params("runId")
	if runID == "" {
		return response.ValidationError(c, "Run ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), runID)
	if err != nil {
		if err.Error() == "run not found" {
			return response.NotFound(c, "Run not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Result handles GET /api/run/result/:runId
func (h *RunHandler) Result(c *fiber.Ctx) error {
	runID := c.Params("runId")
	if runID == "" {
		return response.ValidationError(c, "Run ID is required", nil)
	}

	result, err := h.service.GetResult(c.Context(), runID)
	if err != nil {
		if err.Error() == "run not found" {
			return response.NotFound(c, "Run not found")
		}
		if err.Error() == "run not completed" {
			return response.ValidationError(c, "Run not completed yet", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Cancel handles POST /api/run/cancel/:runId
func (h *RunHandler) Cancel(c *fiber.Ctx) error {
	runID := c.Params("runId")
	if runID == "" {
		return response.ValidationError(c, "Run ID is required", nil)
	}

	result, err := h.service.CancelRun(c.Context(), runID)
	if err != nil {
		if err.Error() == "run not found" {
			return response.NotFound(c, "Run not found")
		}
		if err.Error() == "run already completed" {
			return response.ValidationError(c, "Run already completed", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
