package desk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertylens_backend/internal/model"
)

func TestClientParseProperty(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/parse-property", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"filesProcessed":1,"property":{"name":"Marina Gate","price":3100000,"developer":null}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 5*time.Second).WithToken("tok")
	parsed, err := c.ParseProperty(context.Background(), []UploadFile{{FileName: "spa.pdf", PDFBase64: "JVBERi0="}}, "ru")
	require.NoError(t, err)

	require.NotNil(t, parsed.Name)
	assert.Equal(t, "Marina Gate", *parsed.Name)
	assert.Equal(t, float64(3100000), *parsed.Price)
	assert.Nil(t, parsed.Developer)

	assert.Equal(t, "ru", got["language"])
	files := got["files"].([]interface{})
	assert.Equal(t, "spa.pdf", files[0].(map[string]interface{})["fileName"])
}

func TestClientRelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Rate limit reached","kind":"rate_limit","details":"429"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).AssessRisk(context.Background(), model.Property{ID: 1}, "en")
	require.Error(t, err)
	assert.Equal(t, "Rate limit reached", err.Error())

	var relayErr *RelayError
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, http.StatusInternalServerError, relayErr.StatusCode)
	assert.Equal(t, "rate_limit", relayErr.Kind)
	assert.Equal(t, "429", relayErr.Details)
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Health(context.Background())
	var relayErr *RelayError
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, http.StatusBadGateway, relayErr.StatusCode)
	assert.Contains(t, relayErr.Message, "bad gateway")
}

func TestClientCorrectAndAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/correct-property":
			var body struct {
				Correction string         `json:"correction"`
				Property   model.Property `json:"property"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "price is 2M", body.Correction)
			assert.Equal(t, int64(7), body.Property.ID)
			_, _ = w.Write([]byte(`{"success":true,"correction":{"updates":{"price":2000000},"explanation":"ok","affectsRisk":true,"fieldsChanged":["price"]}}`))
		case "/api/analyze":
			_, _ = w.Write([]byte(`{"content":"## Report"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.CorrectProperty(context.Background(), model.Property{ID: 7}, "price is 2M", "en")
	require.NoError(t, err)
	assert.True(t, res.AffectsRisk)
	assert.JSONEq(t, `2000000`, string(res.Updates["price"]))

	content, err := c.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "## Report", content)
}
