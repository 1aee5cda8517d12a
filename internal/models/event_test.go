package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletionEvent_WireFormat(t *testing.T) {
	id := uuid.MustParse("6f1c2a9e-3b4d-4c5e-8f70-112233445566")

	data, err := json.Marshal(NewDeletionEvent(id))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"DELETE_PROFILE","data":{"userId":"6f1c2a9e-3b4d-4c5e-8f70-112233445566"}}`, string(data))
}
