// Package web provides the REST API for qualification run management.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/persistence"
	"github.com/ecampo/vendiq/pkg/steps"
	"github.com/ecampo/vendiq/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	orchestrator *workflow.Orchestrator
	persistence  persistence.Persistence
	validator    *validator.Validate
}

func NewAPIHandlers(
	orchestrator *workflow.Orchestrator,
	persistence persistence.Persistence,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		orchestrator: orchestrator,
		persistence:  persistence,
		validator:    validator,
	}
}

// Register mounts all routes on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/health", h.HealthCheck)
	app.Post("/suppliers/:id/runs", h.StartRun)
	app.Post("/suppliers/:id/runs/steps/:key", h.StartStep)
	app.Get("/runs/:id", h.GetRun)
	app.Get("/runs/:id/verifications", h.GetRunVerifications)
	app.Post("/runs/:id/cancel", h.CancelRun)
}

// StartRun executes a full qualification run synchronously and returns the
// terminal run record.
func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	supplierID := c.Params("id")
	if supplierID == "" {
		return badRequest(c, "Supplier ID is required")
	}

	req := StartRunRequest{IncludeWhiteList: true}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	options := models.RunOptions{
		IncludeSOA:       req.IncludeSOA,
		IncludeWhiteList: req.IncludeWhiteList,
		TriggeredBy:      req.TriggeredBy,
	}

	run, err := h.orchestrator.RunWorkflow(c.Context(), supplierID, options)
	if err != nil && !errors.Is(err, workflow.ErrRunCanceled) {
		if run != nil {
			// The run record exists in a failed state; return it with the error.
			return c.Status(fiber.StatusInternalServerError).JSON(run)
		}

		return handleRunError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(run)
}

// StartStep executes one step as an isolated single-step run.
func (h *APIHandlers) StartStep(c fiber.Ctx) error {
	supplierID := c.Params("id")
	stepKey := c.Params("key")

	if supplierID == "" || stepKey == "" {
		return badRequest(c, "Supplier ID and step key are required")
	}

	var req StartStepRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	options := models.RunOptions{
		IncludeSOA:       true,
		IncludeWhiteList: true,
		TriggeredBy:      req.TriggeredBy,
	}

	run, err := h.orchestrator.RunSingleStep(c.Context(), supplierID, stepKey, options)
	if err != nil && !errors.Is(err, workflow.ErrRunCanceled) {
		if errors.Is(err, steps.ErrUnknownStep) {
			return badRequest(c, err.Error())
		}

		if run != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(run)
		}

		return handleRunError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(run)
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.persistence.RunByID(c.Context(), id)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) GetRunVerifications(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	if _, err := h.persistence.RunByID(c.Context(), id); err != nil {
		return handleRunError(c, err)
	}

	results, err := h.persistence.VerificationsByRun(c.Context(), id)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(fiber.Map{"run_id": id, "verifications": results})
}

// CancelRun requests cancellation of a running run. Already-terminal runs
// yield a conflict.
func (h *APIHandlers) CancelRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.orchestrator.CancelRun(c.Context(), id)
	if err != nil {
		if run != nil && run.Status.IsTerminal() {
			return conflict(c, err.Error())
		}

		return handleRunError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "vendiq API is healthy"
	httpStatus := http.StatusOK

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "vendiq API is unhealthy: " + err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
