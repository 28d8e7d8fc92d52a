package controller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"propertylens_backend/internal/middleware"
	"propertylens_backend/internal/model"
	"propertylens_backend/pkg/database"
	"propertylens_backend/pkg/email"
	"propertylens_backend/pkg/logger"
	"propertylens_backend/pkg/subscription"
	"propertylens_backend/pkg/utils/jwt"
)

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var accounts database.AccountStore

func InitAuthController(store database.AccountStore) {
	accounts = store
}

func Register(c *fiber.Ctx) error {
	input := new(RegisterInput)
	if ok, err := bindBody(c, input); !ok {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not hash password",
		})
	}

	metadata, _ := json.Marshal(map[string]string{"userAgent": c.Get(fiber.HeaderUserAgent)})
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     input.Email,
		Password:  string(hashedPassword),
		Name:      input.Name,
		Plan:      string(subscription.FreePlan),
		Metadata:  datatypes.JSON(metadata),
		CreatedAt: time.Now().UTC(),
	}

	if err := accounts.Create(c.UserContext(), user); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Email already exists",
			})
		}
		requestLog(c).WithError(err).Error("Could not create user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create user",
		})
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.Name, user.Plan)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate token",
		})
	}

	requestLog(c).WithField("user_id", user.ID).Info("User registered")

	if email.GlobalEmailService != nil {
		go func(userID, to, name, plan string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := email.GlobalEmailService.SendWelcomeEmail(ctx, to, name, plan); err != nil {
				logger.Log.WithError(err).WithField("user_id", userID).Warn("Welcome email failed")
			}
		}(user.ID, user.Email, user.Name, user.Plan)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    user.GetPublicProfile(),
	})
}

func Login(c *fiber.Ctx) error {
	input := new(LoginInput)
	if ok, err := bindBody(c, input); !ok {
		return err
	}

	user, err := accounts.FindByEmail(c.UserContext(), input.Email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			requestLog(c).WithError(err).Error("Could not load user")
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.Name, user.Plan)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate token",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    user.GetPublicProfile(),
	})
}

// GetMe returns the signed-in user and the limits of their plan.
func GetMe(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization token required",
		})
	}

	user, err := accounts.FindByID(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch user",
		})
	}

	return c.JSON(fiber.Map{
		"user":   user.GetPublicProfile(),
		"limits": subscription.GetPlanLimits(subscription.ParsePlan(user.Plan)),
	})
}
