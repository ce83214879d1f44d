package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := New(Config{APIKey: "k", BaseURL: srv.URL, Model: "test-model"}, nil)
	return c, srv.Close
}

func TestChatJSON_Success(t *testing.T) {
	c, closeSrv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: `{"ideas":[1,2,3]}`}})
		json.NewEncoder(w).Encode(resp)
	})
	defer closeSrv()

	obj, err := c.ChatJSON(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Contains(t, obj, "ideas")
}

func TestChatJSON_ParseFailureCarriesRawText(t *testing.T) {
	c, closeSrv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: `not json`}})
		json.NewEncoder(w).Encode(resp)
	})
	defer closeSrv()

	_, err := c.ChatJSON(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Equal(t, apperr.KindLLMParseFailed, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "not json")
}

func TestChatJSON_NoChoicesIsParseFailed(t *testing.T) {
	c, closeSrv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	})
	defer closeSrv()

	_, err := c.ChatJSON(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Equal(t, apperr.KindLLMParseFailed, apperr.KindOf(err))
}

func TestChatJSON_ServerErrorRetriesThenFails(t *testing.T) {
	attempts := 0
	c, closeSrv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer closeSrv()

	_, err := c.ChatJSON(context.Background(), "s", "u")
	require.Error(t, err)
	assert.GreaterOrEqual(t, attempts, 2)
}
