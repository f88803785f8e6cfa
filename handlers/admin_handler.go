package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kelvinjuma/invest_portal/database"
	"github.com/kelvinjuma/invest_portal/models"
	"github.com/kelvinjuma/invest_portal/services"
)

// ListReviewQueue returns payments awaiting an operator decision.
func ListReviewQueue(c *fiber.Ctx) error {
	var payments []models.PaymentRequest
	if err := database.DB.Preload("User").
		Where("state IN ?", []string{models.PaymentStateSubmitted, models.PaymentStateManualReview}).
		Order("created_at asc").Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	queue := payments[:0]
	for i := range payments {
		if !services.ExpireIfOverdue(database.DB, &payments[i]) {
			queue = append(queue, payments[i])
		}
	}
	return c.JSON(queue)
}

type DecisionRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// DecidePayment is the manual-review decision endpoint. Approval runs
// the same commission fan-out as automatic approval; a decision on an
// already-terminal payment is a conflict, never a silent no-op.
func DecidePayment(c *fiber.Ctx) error {
	operatorID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	paymentID, err := uuid.Parse(c.Params("paymentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID format"})
	}

	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payment *models.PaymentRequest
	if req.Action == "approve" {
		payment, err = services.ApprovePayment(paymentID, operatorID, req.Notes)
	} else {
		payment, err = services.RejectPayment(paymentID, operatorID, req.Notes)
	}

	switch {
	case errors.Is(err, services.ErrPaymentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	case errors.Is(err, services.ErrStateConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "state_conflict",
			"state": payment.State,
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to apply decision"})
	}

	return c.JSON(fiber.Map{"payment_id": payment.ID.String(), "new_state": payment.State})
}

func ListAuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	query := database.DB.Model(&models.AuditLog{}).Order("created_at desc")
	if paymentID := c.Query("payment_id"); paymentID != "" {
		query = query.Where("payment_id = ?", paymentID)
	}

	var entries []models.AuditLog
	if err := query.Limit(pageSize).Offset((page - 1) * pageSize).Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(entries)
}
