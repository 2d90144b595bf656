package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndavault/ndavault/internal/logger"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]logger.Level{
		"debug":   logger.DebugLevel,
		"INFO":    logger.InfoLevel,
		"warn":    logger.WarnLevel,
		"error":   logger.ErrorLevel,
		"fatal":   logger.FatalLevel,
		"":        logger.InfoLevel,
		"unknown": logger.InfoLevel,
	}
	for input, want := range cases {
		assert.Equal(t, want, levelFromString(input), "input %q", input)
	}
}

func TestOpenStoreSelectsMemoryByDefault(t *testing.T) {
	store, err := openStore(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, store.Ping(context.Background()))

	store, err = openStore(context.Background(), "memory://")
	require.NoError(t, err)
	assert.NoError(t, store.Ping(context.Background()))
}
