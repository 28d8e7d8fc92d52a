package controller

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"propertylens_backend/pkg/i18n"
	"propertylens_backend/pkg/llm"
	"propertylens_backend/pkg/logger"
	"propertylens_backend/pkg/utils/storage"
)

// RelayDeps are the collaborators shared by the model-backed endpoints.
type RelayDeps struct {
	Model      llm.Model
	Configured bool
	Archive    storage.Archive
	Now        func() time.Time
}

var (
	relay    RelayDeps
	validate = newValidator()
)

func InitRelayController(deps RelayDeps) {
	if deps.Archive == nil {
		deps.Archive = storage.NopArchive{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	relay = deps
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// bindBody parses and validates the JSON body. On failure it has already
// written the 400 reply and returns false.
func bindBody(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if err := validate.Struct(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}
	return true, nil
}

func validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "Invalid input"
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must contain at least %s item(s)", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

func requestLog(c *fiber.Ctx) *logrus.Entry {
	return logger.WithRequest(requestID(c), c.Path())
}

// requestLanguage prefers an explicit body value and falls back to the
// Accept-Language header.
func requestLanguage(c *fiber.Ctx, bodyLang string) string {
	if bodyLang != "" {
		return i18n.Normalize(bodyLang)
	}
	return i18n.Normalize(c.Get(fiber.HeaderAcceptLanguage))
}

func notConfigured(c *fiber.Ctx, lang string) error {
	requestLog(c).Warn("Model API key is not configured")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": i18n.Message(lang, i18n.MsgNotConfigured),
		"kind":  llm.KindNotConfigured,
	})
}

func upstreamError(c *fiber.Ctx, err error, lang string, fallback i18n.MessageKey) error {
	kind := llm.Classify(err)
	requestLog(c).WithError(err).WithField("kind", kind).Error("Model call failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   i18n.ErrorMessage(lang, kind, fallback),
		"kind":    kind,
		"details": err.Error(),
	})
}

func unparseableReply(c *fiber.Ctx, err *llm.ParseError, lang string) error {
	requestLog(c).WithError(err.Err).Warn("Model reply is not valid JSON")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":       i18n.Message(lang, i18n.MsgUnparseableReply),
		"rawResponse": err.Raw,
	})
}

func complete(c *fiber.Ctx, req llm.Request) (string, error) {
	start := relay.Now()
	text, err := relay.Model.Complete(c.UserContext(), req)
	requestLog(c).WithFields(logrus.Fields{
		"documents": len(req.Documents),
		"duration":  relay.Now().Sub(start).String(),
	}).Debug("Model call finished")
	return text, err
}

func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Server is running",
	})
}
