package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWelcomeEmail(t *testing.T) {
	var got EmailData
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer srv.Close()

	svc, err := NewEmailService("re_test", "PropertyLens <noreply@propertylens.app>")
	require.NoError(t, err)
	svc.WithEndpoint(srv.URL)

	require.NoError(t, svc.SendWelcomeEmail(context.Background(), "a@b.com", "Dana", "free"))
	assert.Equal(t, "a@b.com", got.To)
	assert.Equal(t, "PropertyLens <noreply@propertylens.app>", got.From)
	assert.Contains(t, got.Html, "Welcome, Dana!")
	assert.Contains(t, got.Html, "<strong>free</strong>")
}

func TestSendWelcomeEmailAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	svc, err := NewEmailService("re_test", "bad")
	require.NoError(t, err)
	svc.WithEndpoint(srv.URL)

	err = svc.SendWelcomeEmail(context.Background(), "a@b.com", "", "free")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from")
}

func TestInitEmailService(t *testing.T) {
	require.NoError(t, InitEmailService("", "x"))
	assert.Nil(t, GlobalEmailService)

	require.NoError(t, InitEmailService("re_test", "x"))
	assert.NotNil(t, GlobalEmailService)
	GlobalEmailService = nil

	_, err := NewEmailService("", "x")
	assert.Error(t, err)
}
