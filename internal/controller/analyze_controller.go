package controller

import (
	"github.com/gofiber/fiber/v2"

	"propertylens_backend/pkg/i18n"
	"propertylens_backend/pkg/llm"
)

type AnalyzeInput struct {
	Prompt string `json:"prompt" validate:"required"`
}

// Analyze relays a free-form prompt and returns the model's text verbatim.
func Analyze(c *fiber.Ctx) error {
	lang := requestLanguage(c, "")
	if !relay.Configured {
		return notConfigured(c, lang)
	}

	input := new(AnalyzeInput)
	if ok, err := bindBody(c, input); !ok {
		return err
	}

	requestLog(c).Info("Sending analysis request")
	text, err := complete(c, llm.Request{Prompt: input.Prompt, MaxTokens: 2000})
	if err != nil {
		return upstreamError(c, err, lang, i18n.MsgAnalyzeFailed)
	}

	return c.JSON(fiber.Map{
		"content": text,
	})
}
