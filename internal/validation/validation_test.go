package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type statusPayload struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status" validate:"required,inquiry_status"`
}

func TestEnglishValidator(t *testing.T) {
	v, err := English()
	require.NoError(t, err)

	t.Log("valid payload")
	{
		require.NoError(t, v.Validate(&statusPayload{ID: "42", Status: "scheduled"}))
	}

	t.Log("violations are translated")
	{
		err := v.Validate(&statusPayload{Status: "archived"})

		var pldErr *PayloadError
		require.True(t, errors.As(err, &pldErr))

		encoded, err := json.Marshal(pldErr)
		require.NoError(t, err)
		require.JSONEq(t, `{"errors":[
			{"field":"ID","message":"ID is a required field"},
			{"field":"Status","message":"Status must be one of new, contacted, scheduled, completed, cancelled"}
		]}`, string(encoded))
	}
}
