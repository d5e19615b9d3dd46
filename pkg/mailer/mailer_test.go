package mailer

import (
	"strings"
	"testing"

	"github.com/schoolflow/schoolflow-backend/pkg/config"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestSend_NoHostConfiguredDoesNotError(t *testing.T) {
	m := New(&config.SMTPConfig{}, logger.New("test", "development"))
	err := m.Send("student@example.com", "hi", "body")
	assert.NoError(t, err)
}

func TestBuildMessage_IncludesHeadersAndBody(t *testing.T) {
	msg := string(buildMessage("noreply@schoolflow.local", "a@b.com", "Reset your password", "click here"))
	assert.True(t, strings.Contains(msg, "From: noreply@schoolflow.local"))
	assert.True(t, strings.Contains(msg, "To: a@b.com"))
	assert.True(t, strings.Contains(msg, "Subject: Reset your password"))
	assert.True(t, strings.Contains(msg, "click here"))
}

func TestPasswordResetBody_ContainsLink(t *testing.T) {
	body := PasswordResetBody("https://app.schoolflow.local/reset?token=abc")
	assert.Contains(t, body, "https://app.schoolflow.local/reset?token=abc")
}
