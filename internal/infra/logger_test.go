package infra

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevelByEnvironment(t *testing.T) {
	cases := map[string]zerolog.Level{
		"development": zerolog.DebugLevel,
		"production":  zerolog.InfoLevel,
		"cli":         zerolog.InfoLevel,
		"test":        zerolog.Disabled,
	}
	for env, want := range cases {
		assert.Equal(t, want, NewLogger(env).GetLevel(), env)
	}
}
