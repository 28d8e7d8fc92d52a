package controller

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"propertylens_backend/internal/model"
	"propertylens_backend/pkg/i18n"
	"propertylens_backend/pkg/llm"
	"propertylens_backend/pkg/prompts"
)

type AssessRiskInput struct {
	Property *model.Property `json:"property" validate:"required"`
	Language string          `json:"language"`
}

type CorrectPropertyInput struct {
	Property   *model.Property `json:"property" validate:"required"`
	Correction string          `json:"correction" validate:"required"`
	Language   string          `json:"language"`
}

// AssessRisk scores a property on the five risk factors.
func AssessRisk(c *fiber.Ctx) error {
	lang := requestLanguage(c, "")
	if !relay.Configured {
		return notConfigured(c, lang)
	}

	input := new(AssessRiskInput)
	if ok, err := bindBody(c, input); !ok {
		return err
	}
	lang = requestLanguage(c, input.Language)

	requestLog(c).WithField("property", input.Property.Name).WithField("language", lang).Info("Assessing risk")

	text, err := complete(c, llm.Request{
		Prompt:    prompts.Risk(*input.Property, lang, relay.Now()),
		MaxTokens: 2000,
	})
	if err != nil {
		return upstreamError(c, err, lang, i18n.MsgRiskFailed)
	}

	var risk model.RiskAssessment
	if err := llm.DecodeJSON(text, &risk); err != nil {
		var perr *llm.ParseError
		if errors.As(err, &perr) {
			return unparseableReply(c, perr, lang)
		}
		return upstreamError(c, err, lang, i18n.MsgRiskFailed)
	}
	risk.Normalize()

	return c.JSON(fiber.Map{
		"success": true,
		"risk":    risk,
	})
}

// CorrectProperty asks the model which fields a free-text correction changes.
func CorrectProperty(c *fiber.Ctx) error {
	lang := requestLanguage(c, "")
	if !relay.Configured {
		return notConfigured(c, lang)
	}

	input := new(CorrectPropertyInput)
	if ok, err := bindBody(c, input); !ok {
		return err
	}
	lang = requestLanguage(c, input.Language)

	requestLog(c).WithField("property", input.Property.Name).Info("Processing correction")

	text, err := complete(c, llm.Request{
		Prompt:    prompts.Correction(*input.Property, input.Correction, lang),
		MaxTokens: 2000,
	})
	if err != nil {
		return upstreamError(c, err, lang, i18n.MsgCorrectionFailed)
	}

	var result model.CorrectionResult
	if err := llm.DecodeJSON(text, &result); err != nil {
		var perr *llm.ParseError
		if errors.As(err, &perr) {
			return unparseableReply(c, perr, lang)
		}
		return upstreamError(c, err, lang, i18n.MsgCorrectionFailed)
	}
	if result.Updates == nil {
		result.Updates = map[string]json.RawMessage{}
	}
	if result.FieldsChanged == nil {
		result.FieldsChanged = []string{}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"correction": result,
	})
}
