package main

import (
	"commute-service/internal/config"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFailsOnUnknownStoreBackend(t *testing.T) {
	cfg := &config.Config{DBBackend: "bogus"}

	err := run(cfg, zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown backend "bogus"`)
}
