package callflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResult_Success(t *testing.T) {
	res := newResult(&EmailPayload{Subject: "s"}, nil, msgEmailFailed)
	assert.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.Equal(t, "s", res.Data.Subject)
	assert.Empty(t, res.Error)
}

func TestNewResult_FailureKeepsMessage(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Failure{Kind: KindValidation, Message: "Failed to parse response as JSON: x"})
	res := newResult[CallScriptPayload](nil, err, msgCallScriptFailed)
	assert.False(t, res.Success)
	assert.Equal(t, KindValidation, res.Kind)
	assert.Equal(t, "Failed to parse response as JSON: x", res.Error)
}

func TestNewResult_PlainErrorUsesGenericMessage(t *testing.T) {
	err := errors.New("dial tcp 10.0.0.7:5432: connection refused")

	res := newResult[CallScriptPayload](nil, err, msgCallScriptFailed)
	assert.False(t, res.Success)
	assert.Nil(t, res.Data)
	assert.Equal(t, KindProcessing, res.Kind)
	assert.Equal(t, "An error occurred while processing the request", res.Error)
	assert.NotContains(t, res.Error, "10.0.0.7")

	email := newResult[EmailPayload](nil, err, msgEmailFailed)
	assert.Equal(t, "An error occurred while processing the email request", email.Error)
}
