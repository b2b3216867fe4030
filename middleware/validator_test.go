package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type caseRequest struct {
	ClientID   string  `json:"clientId" validate:"required"`
	TotalPrice float64 `json:"totalPrice" validate:"gt=0"`
}

func TestRequestValidator(t *testing.T) {
	v := NewRequestValidator()

	assert.NoError(t, v.Validate(&caseRequest{ClientID: "c1", TotalPrice: 10}))

	err := v.Validate(&caseRequest{ClientID: "c1"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusFor(err))

	e := classify(err)
	assert.Equal(t, "totalPrice", e.field)
	assert.Equal(t, "failed gt", e.message)
}
