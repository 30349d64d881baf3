// Package binding implements the host platform's field binding contract: a
// typed store of field values validated against the widget's field
// configuration, with change notification for bound readers.
package binding

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/scenescope/scenescope/internal/field"
)

// Environment variables required for platform access at startup.
const (
	EnvToken       = "SCENESCOPE_TOKEN"
	EnvRedirectURL = "SCENESCOPE_REDIRECT_URL"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrReadOnly     = errors.New("field is not writable by the widget")
	ErrWrongType    = errors.New("wrong value type for field")
)

// Credentials hold the platform access token and OAuth redirect URL.
// Both are mandatory; startup fails without them.
type Credentials struct {
	Token       string
	RedirectURL string
}

// CredentialsFromEnv reads platform credentials from the process environment.
func CredentialsFromEnv() (Credentials, error) {
	token := os.Getenv(EnvToken)
	redirect := os.Getenv(EnvRedirectURL)
	if token == "" {
		return Credentials{}, fmt.Errorf("missing %s in environment", EnvToken)
	}
	if redirect == "" {
		return Credentials{}, fmt.Errorf("missing %s in environment", EnvRedirectURL)
	}
	return Credentials{Token: token, RedirectURL: redirect}, nil
}

type listener struct {
	id string
	fn func(id string, value any)
}

// Context is the platform-provided binding context handed to the widget's
// root component. Values are keyed by field ID and checked against the
// declared descriptor set on every write.
type Context struct {
	creds     Credentials
	fields    []field.Descriptor
	values    map[string]any
	listeners map[string][]listener
	logger    *slog.Logger
}

// NewContext validates the field set, seeds values from descriptor defaults
// and returns a ready binding context.
func NewContext(creds Credentials, fields []field.Descriptor, logger *slog.Logger) (*Context, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := field.Validate(fields); err != nil {
		return nil, fmt.Errorf("invalid field configuration: %w", err)
	}
	values := make(map[string]any, len(fields))
	for _, d := range fields {
		values[d.ID] = d.Default
	}
	return &Context{
		creds:     creds,
		fields:    fields,
		values:    values,
		listeners: make(map[string][]listener),
		logger:    logger,
	}, nil
}

// Credentials returns the startup credentials.
func (c *Context) Credentials() Credentials { return c.creds }

// Fields returns the descriptor set this context was built from.
func (c *Context) Fields() []field.Descriptor { return c.fields }

// String reads a string field.
func (c *Context) String(id string) (string, error) {
	v, err := c.value(id, field.String)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// Number reads a number field.
func (c *Context) Number(id string) (float64, error) {
	v, err := c.value(id, field.Number)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, nil
}

// NumberList reads a number-list field.
func (c *Context) NumberList(id string) ([]float64, error) {
	v, err := c.value(id, field.NumberList)
	if err != nil {
		return nil, err
	}
	ns, _ := v.([]float64)
	return ns, nil
}

// SetString writes a string field.
func (c *Context) SetString(id, v string) error { return c.set(id, field.String, v) }

// SetNumber writes a number field.
func (c *Context) SetNumber(id string, v float64) error { return c.set(id, field.Number, v) }

// SetNumberList writes a number-list field.
func (c *Context) SetNumberList(id string, v []float64) error { return c.set(id, field.NumberList, v) }

// HostSet writes a field on behalf of the host platform, bypassing the
// direction check. The sync transport uses this to push inbound values.
func (c *Context) HostSet(id string, v any) error {
	d, ok := field.Lookup(c.fields, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	c.values[id] = v
	c.notify(d.ID, v)
	return nil
}

// OnChange registers fn to run whenever the field changes. The returned
// function removes the listener; callers must invoke it on teardown.
func (c *Context) OnChange(id string, fn func(id string, value any)) (remove func(), err error) {
	if _, ok := field.Lookup(c.fields, id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	l := listener{id: uuid.NewString(), fn: fn}
	c.listeners[id] = append(c.listeners[id], l)
	return func() {
		ls := c.listeners[id]
		for i := range ls {
			if ls[i].id == l.id {
				c.listeners[id] = append(ls[:i], ls[i+1:]...)
				return
			}
		}
	}, nil
}

func (c *Context) value(id string, want field.ValueType) (any, error) {
	d, ok := field.Lookup(c.fields, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	if d.ValueType != want {
		return nil, fmt.Errorf("%w: %s is %s", ErrWrongType, id, d.ValueType)
	}
	return c.values[id], nil
}

func (c *Context) set(id string, want field.ValueType, v any) error {
	d, ok := field.Lookup(c.fields, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	if d.Direction == field.Input {
		return fmt.Errorf("%w: %s", ErrReadOnly, id)
	}
	if d.ValueType != want {
		return fmt.Errorf("%w: %s is %s", ErrWrongType, id, d.ValueType)
	}
	c.values[id] = v
	c.logger.Debug("field updated", slog.String("field", id))
	c.notify(id, v)
	return nil
}

func (c *Context) notify(id string, v any) {
	for _, l := range c.listeners[id] {
		l.fn(id, v)
	}
}
