// pkg/email/service.go
package email

// GlobalEmailService stays nil when no Resend key is configured; callers
// skip sending in that case.
var GlobalEmailService *EmailService

func InitEmailService(apiKey, from string) error {
	if apiKey == "" {
		GlobalEmailService = nil
		return nil
	}
	service, err := NewEmailService(apiKey, from)
	if err != nil {
		return err
	}
	GlobalEmailService = service
	return nil
}
