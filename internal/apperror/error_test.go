package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", BadRequest("vendor is required"), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("lookup: %w", NotFound("")), http.StatusNotFound},
		{"upstream", fmt.Errorf("list: %w", &UpstreamError{Service: "shopify", StatusCode: 503}), http.StatusBadGateway},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestUpstreamErrorMessage(t *testing.T) {
	err := &UpstreamError{Service: "shopify", StatusCode: 429, Body: "Exceeded 2 calls per second"}
	assert.Equal(t, "shopify request failed: 429 - Exceeded 2 calls per second", err.Error())
}
