package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"propertylens_backend/internal/middleware"
	"propertylens_backend/internal/model"
	"propertylens_backend/pkg/i18n"
	"propertylens_backend/pkg/llm"
	"propertylens_backend/pkg/prompts"
	"propertylens_backend/pkg/subscription"
	"propertylens_backend/pkg/utils/validation"
)

const archiveTimeout = 30 * time.Second

type FileInput struct {
	PDFBase64 string `json:"pdfBase64" validate:"required"`
	FileName  string `json:"fileName"`
}

type ParsePropertyInput struct {
	Files    []FileInput `json:"files" validate:"required,min=1,dive"`
	Language string      `json:"language"`
}

type ParseTextInput struct {
	Text     string `json:"text" validate:"required"`
	Language string `json:"language"`
}

// validationVerdict is the reply of the cheap "is this real estate?" call.
type validationVerdict struct {
	IsProperty bool   `json:"isProperty"`
	Reason     string `json:"reason"`
}

// ParseProperty extracts one property from a batch of PDFs.
func ParseProperty(c *fiber.Ctx) error {
	lang := requestLanguage(c, "")
	if !relay.Configured {
		return notConfigured(c, lang)
	}

	input := new(ParsePropertyInput)
	if ok, err := bindBody(c, input); !ok {
		return err
	}
	lang = requestLanguage(c, input.Language)

	docs := make([]llm.Document, 0, len(input.Files))
	decoded := make([][]byte, 0, len(input.Files))
	names := make([]string, 0, len(input.Files))
	for i, f := range input.Files {
		name := f.FileName
		if name == "" {
			name = fmt.Sprintf("document-%d.pdf", i+1)
		}
		data, err := validation.DecodePDF(f.PDFBase64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":    err.Error(),
				"fileName": name,
			})
		}
		docs = append(docs, llm.Document{FileName: name, Base64: validation.StripDataURL(f.PDFBase64)})
		decoded = append(decoded, data)
		names = append(names, name)
	}

	log := requestLog(c).WithField("files", len(docs))
	log.WithField("names", names).Info("Parsing documents")

	if ok, err := checkIsProperty(c, llm.Request{Prompt: prompts.ValidateDocuments(names), Documents: docs, MaxTokens: 200}, lang); !ok {
		return err
	}

	text, err := complete(c, llm.Request{Prompt: prompts.ParseDocuments(names), Documents: docs, MaxTokens: 4000})
	if err != nil {
		return upstreamError(c, err, lang, i18n.MsgParseFailed)
	}

	var parsed model.ParsedProperty
	if err := llm.DecodeJSON(text, &parsed); err != nil {
		var perr *llm.ParseError
		if errors.As(err, &perr) {
			return unparseableReply(c, perr, lang)
		}
		return upstreamError(c, err, lang, i18n.MsgParseFailed)
	}

	if middleware.HasFeature(c, subscription.DocumentArchive) {
		archiveDocuments(c, names, decoded)
	}

	log.Info("Documents parsed")
	return c.JSON(fiber.Map{
		"success":        true,
		"property":       parsed,
		"filesProcessed": len(docs),
	})
}

// ParseText extracts a property from pasted listing text.
func ParseText(c *fiber.Ctx) error {
	lang := requestLanguage(c, "")
	if !relay.Configured {
		return notConfigured(c, lang)
	}

	input := new(ParseTextInput)
	if ok, err := bindBody(c, input); !ok {
		return err
	}
	lang = requestLanguage(c, input.Language)

	if ok, err := checkIsProperty(c, llm.Request{Prompt: prompts.ValidateText(input.Text), MaxTokens: 200}, lang); !ok {
		return err
	}

	text, err := complete(c, llm.Request{Prompt: prompts.ParseText(input.Text), MaxTokens: 4000})
	if err != nil {
		return upstreamError(c, err, lang, i18n.MsgParseFailed)
	}

	var parsed model.ParsedProperty
	if err := llm.DecodeJSON(text, &parsed); err != nil {
		var perr *llm.ParseError
		if errors.As(err, &perr) {
			return unparseableReply(c, perr, lang)
		}
		return upstreamError(c, err, lang, i18n.MsgParseFailed)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"property": parsed,
	})
}

// checkIsProperty runs the validation call. An unreadable verdict is not
// fatal; only an explicit "no" rejects the request.
func checkIsProperty(c *fiber.Ctx, req llm.Request, lang string) (bool, error) {
	text, err := complete(c, req)
	if err != nil {
		return false, upstreamError(c, err, lang, i18n.MsgParseFailed)
	}

	var verdict validationVerdict
	if err := llm.DecodeJSON(text, &verdict); err != nil {
		requestLog(c).WithError(err).Warn("Validation verdict unreadable, continuing")
		return true, nil
	}
	if !verdict.IsProperty {
		requestLog(c).WithField("reason", verdict.Reason).Info("Rejected non-property input")
		return false, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  i18n.Message(lang, i18n.MsgNotPropertyDocument),
			"reason": verdict.Reason,
		})
	}
	return true, nil
}

func archiveDocuments(c *fiber.Ctx, names []string, data [][]byte) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	batchID := requestID(c)
	if batchID == "" {
		batchID = fmt.Sprintf("%d", relay.Now().UnixMilli())
	}
	for i, name := range names {
		key, err := relay.Archive.Put(ctx, batchID, name, data[i])
		if err != nil {
			requestLog(c).WithError(err).WithField("file", name).Warn("Could not archive document")
			continue
		}
		if key != "" {
			requestLog(c).WithField("key", key).Debug("Document archived")
		}
	}
}
