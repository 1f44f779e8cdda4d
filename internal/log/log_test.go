package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupVerbose(t *testing.T) {
	t.Setenv("ROOST_LOG_LEVEL", "")

	var buf bytes.Buffer
	Setup(Config{Verbose: true, Output: &buf, NoColor: true})
	t.Cleanup(func() { Setup(Config{}) })

	l := WithComponent("codegen")
	l.Debug().Str("spec", "app.roost.yml").Msg("rendering")

	out := buf.String()
	assert.Contains(t, out, "rendering")
	assert.Contains(t, out, "component=codegen")
	assert.Contains(t, out, "spec=app.roost.yml")
}

func TestSetupQuietDropsDebug(t *testing.T) {
	t.Setenv("ROOST_LOG_LEVEL", "")

	var buf bytes.Buffer
	Setup(Config{Output: &buf, NoColor: true})
	t.Cleanup(func() { Setup(Config{}) })

	l := Base()
	l.Debug().Msg("hidden")
	l.Info().Msg("also hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestFromContext(t *testing.T) {
	t.Setenv("ROOST_LOG_LEVEL", "")

	var buf bytes.Buffer
	Setup(Config{Verbose: true, Output: &buf, NoColor: true})
	t.Cleanup(func() { Setup(Config{}) })

	// Without a logger in the context the base logger is used.
	assert.NotNil(t, FromContext(context.Background()))

	ctx := IntoContext(context.Background(), Base().With().Str("spec", "a.roost.yml").Logger())
	l := WithComponentFromContext(ctx, "build")
	l.Info().Msg("generated")

	out := buf.String()
	assert.Contains(t, out, "spec=a.roost.yml")
	assert.Contains(t, out, "component=build")
}
