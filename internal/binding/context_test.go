package binding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenescope/scenescope/internal/field"
)

func testCreds() Credentials {
	return Credentials{Token: "tok", RedirectURL: "https://example.com/cb"}
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := NewContext(testCreds(), field.Fields(), nil)
	require.NoError(t, err)
	return ctx
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv(EnvToken, "abc")
	t.Setenv(EnvRedirectURL, "https://example.com/cb")
	creds, err := CredentialsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "abc", creds.Token)

	t.Setenv(EnvToken, "")
	_, err = CredentialsFromEnv()
	assert.Error(t, err)
}

func TestNewContextRejectsInvalidFields(t *testing.T) {
	bad := []field.Descriptor{
		{ID: "x", Direction: field.Input, ValueType: field.String},
		{ID: "x", Direction: field.Input, ValueType: field.String},
	}
	_, err := NewContext(testCreds(), bad, nil)
	assert.Error(t, err)
}

func TestDefaultsSeeded(t *testing.T) {
	ctx := newTestContext(t)
	mode, err := ctx.String(field.HeatmapMode)
	require.NoError(t, err)
	assert.Equal(t, "temperature", mode)

	intensity, err := ctx.Number(field.Intensity)
	require.NoError(t, err)
	assert.Equal(t, 0.5, intensity)
}

func TestSetAndGet(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.SetNumber(field.Intensity, 0.8))
	v, err := ctx.Number(field.Intensity)
	require.NoError(t, err)
	assert.Equal(t, 0.8, v)
}

func TestInputFieldsAreReadOnly(t *testing.T) {
	ctx := newTestContext(t)
	err := ctx.SetString(field.ModelURL, "https://example.com/m.svf")
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestHostSetBypassesDirection(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.HostSet(field.ModelURL, "https://example.com/m.svf"))
	v, err := ctx.String(field.ModelURL)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/m.svf", v)
}

func TestUnknownField(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.String("nope")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestWrongType(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.Number(field.HeatmapMode)
	assert.True(t, errors.Is(err, ErrWrongType))
}

func TestOnChangeAndRemove(t *testing.T) {
	ctx := newTestContext(t)

	var got []any
	remove, err := ctx.OnChange(field.Intensity, func(id string, v any) {
		got = append(got, v)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.SetNumber(field.Intensity, 0.3))
	require.Len(t, got, 1)
	assert.Equal(t, 0.3, got[0])

	remove()
	require.NoError(t, ctx.SetNumber(field.Intensity, 0.9))
	assert.Len(t, got, 1, "removed listener must not fire")
}
