package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	config "github.com/kelvinjuma/invest_portal/configs"
	"github.com/kelvinjuma/invest_portal/database"
	"github.com/kelvinjuma/invest_portal/models"
	"github.com/kelvinjuma/invest_portal/notifications"
	"github.com/kelvinjuma/invest_portal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

type RegisterRequest struct {
	FullName       string  `json:"full_name" validate:"required,min=3"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=6"`
	Country        *string `json:"country,omitempty"`
	ReferredByCode *string `json:"referred_by_code,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	ReferralCode *string   `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterUser creates an account and, when a valid referral code is
// supplied, the referral edge that later commission distribution walks.
func RegisterUser(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	var newUser models.User
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var referrer *models.User
		if req.ReferredByCode != nil && *req.ReferredByCode != "" {
			var ref models.User
			if err := tx.Where("referral_code = ?", *req.ReferredByCode).First(&ref).Error; err != nil {
				log.Printf("Invalid referral code used: %s", *req.ReferredByCode)
			} else {
				referrer = &ref
			}
		}

		uniqueCode, err := utils.GenerateUniqueReferralCode(tx)
		if err != nil {
			return err
		}

		newUser = models.User{
			FullName:       req.FullName,
			Email:          req.Email,
			Password:       string(hashedPassword),
			Country:        req.Country,
			ReferralCode:   &uniqueCode,
			ReferredByCode: req.ReferredByCode,
		}
		if err := tx.Create(&newUser).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.New("email already exists")
			}
			return err
		}

		if referrer != nil {
			edge := models.Referral{
				ReferrerID:     referrer.ID,
				ReferredUserID: newUser.ID,
			}
			if err := tx.Create(&edge).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if err.Error() == "email already exists" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	go notifications.SendEmail(newUser.FullName, newUser.Email, "Welcome!",
		"<h1>Welcome!</h1><p>Your account is ready. Fund your first investment position to get started.</p>")

	return c.Status(fiber.StatusCreated).JSON(UserResponse{
		ID:           newUser.ID.String(),
		FullName:     newUser.FullName,
		Email:        newUser.Email,
		Role:         newUser.Role,
		ReferralCode: newUser.ReferralCode,
		CreatedAt:    newUser.CreatedAt,
	})
}

func LoginUser(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString([]byte(config.Config("JWT_SECRET")))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}

	return c.JSON(fiber.Map{"token": t, "user": UserResponse{
		ID:           user.ID.String(),
		FullName:     user.FullName,
		Email:        user.Email,
		Role:         user.Role,
		ReferralCode: user.ReferralCode,
		CreatedAt:    user.CreatedAt,
	}})
}

// currentUserID extracts the authenticated user's id from the JWT that
// the Protected middleware stored in locals.
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("missing auth token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid token claims")
	}
	raw, _ := claims["user_id"].(string)
	return uuid.Parse(raw)
}
