package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type bindTarget struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    bindTarget
		expectError bool
	}{
		{
			name:     "Nested Structure",
			key:      "payment",
			body:     `{"payment": {"amount": 250.5, "description": "week 3"}}`,
			expected: bindTarget{Amount: 250.5, Description: "week 3"},
		},
		{
			name:     "Flat Structure",
			key:      "payment",
			body:     `{"amount": 100, "description": "partial"}`,
			expected: bindTarget{Amount: 100, Description: "partial"},
		},
		{
			name:     "Missing Key Falls Back to Flat",
			key:      "payment",
			body:     `{"other": "value", "amount": 75}`,
			expected: bindTarget{Amount: 75},
		},
		{
			name:     "Different Nesting Key",
			key:      "loan",
			body:     `{"loan": {"amount": 1000}}`,
			expected: bindTarget{Amount: 1000},
		},
		{
			name:        "Flat with Wrong Field Type",
			key:         "payment",
			body:        `{"amount": "not a number"}`,
			expectError: true,
		},
		{
			name:        "Nested with Wrong Field Type",
			key:         "payment",
			body:        `{"payment": {"amount": "not a number"}}`,
			expectError: true,
		},
		{
			name:        "Nested Key Present but Not an Object",
			key:         "payment",
			body:        `{"payment": "some string"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result bindTarget
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
