package ai

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(status int, body string, capture *http.Request) *GeminiClient {
	return &GeminiClient{
		apiKey: "test-key",
		model:  "gemini-2.0-flash",
		client: &http.Client{
			Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				if capture != nil {
					*capture = *req
				}
				return &http.Response{
					StatusCode: status,
					Body:       io.NopCloser(strings.NewReader(body)),
					Header:     http.Header{"Content-Type": []string{"application/json"}},
				}, nil
			}),
		},
	}
}

func TestGeminiAnswer(t *testing.T) {
	var captured http.Request
	client := newTestClient(http.StatusOK, `{
		"candidates": [{"content": {"parts": [{"text": "باريس هي عاصمة فرنسا."}]}}]
	}`, &captured)

	answer, err := client.Answer(context.Background(), "ما هي عاصمة فرنسا؟")
	require.NoError(t, err)
	assert.Equal(t, "باريس هي عاصمة فرنسا.", answer)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Contains(t, captured.URL.String(), "gemini-2.0-flash")
	assert.Equal(t, "test-key", captured.Header.Get("x-goog-api-key"))
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
}

func TestGeminiAnswer_SkipsEmptyParts(t *testing.T) {
	client := newTestClient(http.StatusOK, `{
		"candidates": [
			{"content": {"parts": [{"text": ""}]}},
			{"content": {"parts": [{"text": "الإجابة الثانية"}]}}
		]
	}`, nil)

	answer, err := client.Answer(context.Background(), "سؤال")
	require.NoError(t, err)
	assert.Equal(t, "الإجابة الثانية", answer)
}

func TestGeminiAnswer_APIError(t *testing.T) {
	client := newTestClient(http.StatusBadRequest, `{
		"error": {"message": "API key not valid"}
	}`, nil)

	_, err := client.Answer(context.Background(), "سؤال")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiAnswer_UnexpectedStatus(t *testing.T) {
	client := newTestClient(http.StatusServiceUnavailable, `{}`, nil)

	_, err := client.Answer(context.Background(), "سؤال")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestGeminiAnswer_EmptyAnswer(t *testing.T) {
	client := newTestClient(http.StatusOK, `{"candidates": []}`, nil)

	_, err := client.Answer(context.Background(), "سؤال")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}
