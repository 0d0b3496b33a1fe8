package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate("Hi {{recipientEmail}}, report for {{reportDate}}", map[string]string{
		"recipientEmail": "ops@acme.com",
		"reportDate":     "2025-05-31",
	})
	assert.Equal(t, "Hi ops@acme.com, report for 2025-05-31", out)
}

func TestRenderTemplate_UnknownPlaceholderLeftUntouched(t *testing.T) {
	out := RenderTemplate("Hi {{recipientEmail}}, {{unknown}}", map[string]string{
		"recipientEmail": "ops@acme.com",
	})
	assert.Equal(t, "Hi ops@acme.com, {{unknown}}", out)
}
