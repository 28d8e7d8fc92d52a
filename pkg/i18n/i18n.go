package i18n

import (
	"strings"

	"propertylens_backend/pkg/llm"
)

const DefaultLanguage = "en"

var instructions = map[string]string{
	"en": "Respond in English.",
	"ru": "Отвечай на русском языке.",
	"ar": "أجب باللغة العربية.",
	"zh": "请用中文回答。",
	"fr": "Réponds en français.",
	"es": "Responde en español.",
	"de": "Antworte auf Deutsch.",
	"it": "Rispondi in italiano.",
	"ja": "日本語で回答してください。",
	"th": "ตอบเป็นภาษาไทย",
	"cs": "Odpověz v češtině.",
	"kk": "Қазақ тілінде жауап беріңіз.",
	"ka": "უპასუხე ქართულად.",
}

// Normalize reduces a language tag such as "ru-RU" or an Accept-Language
// value to a supported code, falling back to English.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if _, ok := instructions[lang]; ok {
		return lang
	}
	return DefaultLanguage
}

// Instruction is the sentence appended to prompts to pin the reply language.
func Instruction(lang string) string {
	return instructions[Normalize(lang)]
}

func Supported() []string {
	return []string{"en", "ru", "ar", "zh", "fr", "es", "de", "it", "ja", "th", "cs", "kk", "ka"}
}

type MessageKey string

const (
	MsgNotConfigured       MessageKey = "not_configured"
	MsgAuth                MessageKey = "auth"
	MsgRateLimit           MessageKey = "rate_limit"
	MsgQuota               MessageKey = "quota"
	MsgNetwork             MessageKey = "network"
	MsgUnreadableDocument  MessageKey = "unreadable_document"
	MsgPayloadTooLarge     MessageKey = "payload_too_large"
	MsgAnalyzeFailed       MessageKey = "analyze_failed"
	MsgParseFailed         MessageKey = "parse_failed"
	MsgRiskFailed          MessageKey = "risk_failed"
	MsgCorrectionFailed    MessageKey = "correction_failed"
	MsgUnparseableReply    MessageKey = "unparseable_reply"
	MsgNotPropertyDocument MessageKey = "not_property_document"
)

// Error messages exist in English and Russian; every other language gets
// the English text.
var messages = map[string]map[MessageKey]string{
	"en": {
		MsgNotConfigured:       "API key is not configured. Set ANTHROPIC_API_KEY in .env",
		MsgAuth:                "Invalid API key. Check the key in your .env file",
		MsgRateLimit:           "Request limit exceeded. Wait a minute and try again",
		MsgQuota:               "Insufficient Anthropic balance. Top up at console.anthropic.com",
		MsgNetwork:             "No connection to the model service",
		MsgUnreadableDocument:  "Could not read the PDF. Try another file.",
		MsgPayloadTooLarge:     "Files are too large. Try uploading fewer files.",
		MsgAnalyzeFailed:       "Failed to get analysis",
		MsgParseFailed:         "Failed to parse the documents",
		MsgRiskFailed:          "Failed to assess risk",
		MsgCorrectionFailed:    "Failed to process the correction",
		MsgUnparseableReply:    "Could not parse the model reply",
		MsgNotPropertyDocument: "This does not look like a real-estate document",
	},
	"ru": {
		MsgNotConfigured:       "API ключ не настроен! Укажите ANTHROPIC_API_KEY в .env",
		MsgAuth:                "Неверный API ключ! Проверьте ключ в файле .env",
		MsgRateLimit:           "Превышен лимит запросов. Подождите минуту и попробуйте снова",
		MsgQuota:               "Недостаточно средств на балансе Anthropic. Пополните баланс на console.anthropic.com",
		MsgNetwork:             "Нет подключения к сервису модели",
		MsgUnreadableDocument:  "Не удалось прочитать PDF. Попробуйте другой файл.",
		MsgPayloadTooLarge:     "Файлы слишком большие. Попробуйте загрузить меньше файлов.",
		MsgAnalyzeFailed:       "Ошибка при получении анализа",
		MsgParseFailed:         "Ошибка при парсинге документов",
		MsgRiskFailed:          "Ошибка при оценке риска",
		MsgCorrectionFailed:    "Ошибка при обработке уточнения",
		MsgUnparseableReply:    "Не удалось распарсить ответ AI",
		MsgNotPropertyDocument: "Документ не похож на документ о недвижимости",
	},
}

func Message(lang string, key MessageKey) string {
	if table, ok := messages[Normalize(lang)]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	return messages[DefaultLanguage][key]
}

var kindMessages = map[llm.ErrorKind]MessageKey{
	llm.KindNotConfigured:      MsgNotConfigured,
	llm.KindAuth:               MsgAuth,
	llm.KindRateLimit:          MsgRateLimit,
	llm.KindQuota:              MsgQuota,
	llm.KindNetwork:            MsgNetwork,
	llm.KindUnreadableDocument: MsgUnreadableDocument,
	llm.KindPayloadTooLarge:    MsgPayloadTooLarge,
}

// ErrorMessage picks the user-facing text for an upstream failure. Kinds
// without a dedicated message use the endpoint's fallback.
func ErrorMessage(lang string, kind llm.ErrorKind, fallback MessageKey) string {
	if key, ok := kindMessages[kind]; ok {
		return Message(lang, key)
	}
	return Message(lang, fallback)
}
