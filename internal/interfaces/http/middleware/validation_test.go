package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atelier/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	// Should not panic
	SetupValidator()

	// Verify the validator is configured
	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestFormatValidationErrors(t *testing.T) {
	type sellRequest struct {
		Quantity int    `json:"quantity" binding:"required,gt=0"`
		Reason   string `json:"reason" binding:"omitempty,max=10"`
	}

	SetupValidator()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req sellRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("returns field-level details for invalid input", func(t *testing.T) {
		body := strings.NewReader(`{"quantity": 0, "reason": "far too long a reason"}`)
		req := httptest.NewRequest("POST", "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)

		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)

		details, err := json.Marshal(resp.Error.Details)
		require.NoError(t, err)
		// Field names come from the json tags, not the struct fields
		assert.Contains(t, string(details), "quantity")
		assert.Contains(t, string(details), "reason")
	})

	t.Run("passes valid input through", func(t *testing.T) {
		body := strings.NewReader(`{"quantity": 3, "reason": "sold"}`)
		req := httptest.NewRequest("POST", "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type input struct {
		Quantity int    `json:"quantity" binding:"required"`
		Action   string `json:"action" binding:"omitempty,oneof=price status"`
		BatchID  string `json:"batch_id" binding:"omitempty,uuid"`
	}

	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(input{Action: "destroy", BatchID: "not-a-uuid"})
	require.Error(t, err)

	validationErrors, ok := err.(validator.ValidationErrors)
	require.True(t, ok)

	messages := make(map[string]string)
	for _, e := range validationErrors {
		messages[e.Field()] = validationMessage(e)
	}

	assert.Equal(t, "This field is required", messages["quantity"])
	assert.Equal(t, "Must be one of: price status", messages["action"])
	assert.Equal(t, "Invalid UUID format", messages["batch_id"])
}
