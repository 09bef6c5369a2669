package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		logger := New(level, "production")
		assert.NotNil(t, logger)
		assert.NotNil(t, logger.Logger)
	}
}

func TestNewDevelopmentHandler(t *testing.T) {
	logger := New("debug", "development")
	assert.NotNil(t, logger)
}

func TestDefault(t *testing.T) {
	logger := Default()
	assert.NotNil(t, logger)
}

func TestWith(t *testing.T) {
	logger := Default().With("component", "test")
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.Logger)
}
