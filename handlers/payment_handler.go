package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kelvinjuma/invest_portal/database"
	"github.com/kelvinjuma/invest_portal/models"
	"github.com/kelvinjuma/invest_portal/services"
	"gorm.io/gorm"
)

type SubmitPaymentRequest struct {
	AmountUSD      float64 `json:"declared_amount_usd" validate:"required,gt=0"`
	Chain          string  `json:"chain" validate:"required,oneof=eth bsc polygon tron"`
	Plan           string  `json:"plan" validate:"required,min=2,max=50"`
	CompanyAddress string  `json:"company_address" validate:"required"`
	SenderName     string  `json:"sender_name" validate:"required,min=2"`
	SenderAddress  *string `json:"sender_address,omitempty"`
	TxRef          *string `json:"transaction_ref,omitempty"`
	ProofURL       *string `json:"proof_url,omitempty"`
}

type SubmitPaymentResponse struct {
	PaymentID    string `json:"payment_id"`
	State        string `json:"state"`
	AutoVerified bool   `json:"auto_verified"`
	Confidence   int    `json:"confidence"`
}

// SubmitPayment records a funding claim and runs it through automatic
// verification. The uniqueness constraint on live transaction
// references, not a read-then-write check, is what blocks duplicate
// submissions racing each other.
func SubmitPayment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	var req SubmitPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.TxRef != nil && *req.TxRef == "" {
		req.TxRef = nil
	}

	var payment models.PaymentRequest
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		position := models.InvestmentPosition{
			UserID:    userID,
			Plan:      req.Plan,
			AmountUSD: req.AmountUSD,
			Status:    models.PositionStatusPending,
		}
		if err := tx.Create(&position).Error; err != nil {
			return err
		}

		now := time.Now()
		payment = models.PaymentRequest{
			UserID:         userID,
			PositionID:     &position.ID,
			AmountUSD:      req.AmountUSD,
			Method:         "crypto",
			Chain:          req.Chain,
			SenderName:     req.SenderName,
			SenderAddress:  req.SenderAddress,
			CompanyAddress: req.CompanyAddress,
			TxRef:          req.TxRef,
			ProofURL:       req.ProofURL,
			State:          models.PaymentStatePending,
			ExpiresAt:      now.Add(models.PaymentRequestTTL),
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": services.ErrDuplicateTransaction.Error(),
			})
		}
		log.Printf("🔥 Failed to create payment for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create payment"})
	}

	services.RecordAuditBestEffort(database.DB, &userID, &payment.ID, services.AuditPaymentSubmitted,
		"payment submitted for verification")

	verified, err := services.RunAutoVerification(payment.ID)
	if err != nil {
		log.Printf("🔥 Auto verification failed for payment %s: %v", payment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Verification failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(SubmitPaymentResponse{
		PaymentID:    verified.ID.String(),
		State:        verified.State,
		AutoVerified: verified.State == models.PaymentStateApproved,
		Confidence:   verified.Confidence,
	})
}

// GetPayment returns one of the caller's payments, lazily expiring it
// when its review window has elapsed.
func GetPayment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	var payment models.PaymentRequest
	if err := database.DB.Preload("Position").
		Where("id = ? AND user_id = ?", c.Params("paymentId"), userID).
		First(&payment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}

	services.ExpireIfOverdue(database.DB, &payment)

	var snapshots []models.VerificationResult
	database.DB.Where("payment_id = ?", payment.ID).Order("created_at asc").Find(&snapshots)

	return c.JSON(fiber.Map{"payment": payment, "verifications": snapshots})
}

func ListMyPayments(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	var payments []models.PaymentRequest
	if err := database.DB.Where("user_id = ?", userID).
		Order("created_at desc").Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	for i := range payments {
		services.ExpireIfOverdue(database.DB, &payments[i])
	}
	return c.JSON(payments)
}

func ListMyCommissions(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	var commissions []models.CommissionRecord
	if err := database.DB.Where("beneficiary_id = ?", userID).
		Order("created_at desc").Find(&commissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(commissions)
}
