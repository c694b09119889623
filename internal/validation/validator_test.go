package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/simonhull/fileops/internal/errors"
)

type sample struct {
	Name      string  `validate:"required"`
	Threshold int     `validate:"gte=0"`
	Ratio     float64 `validate:"gte=0,lte=1"`
}

func TestValidate_Valid(t *testing.T) {
	v := New()
	err := v.Validate(sample{Name: "detector", Threshold: 3, Ratio: 0.5})
	assert.NoError(t, err)
}

func TestValidate_Invalid(t *testing.T) {
	v := New()
	err := v.Validate(sample{Threshold: -1, Ratio: 2.0})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	var domainErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &domainErr))

	fields, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["Name"])
	assert.Equal(t, "must be at least 0", fields["Threshold"])
	assert.Equal(t, "must be at most 1", fields["Ratio"])
}

func TestValidate_MessageListsEveryField(t *testing.T) {
	v := New()
	err := v.Validate(sample{Threshold: -1})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "Name is required")
	assert.Contains(t, msg, "Threshold must be at least 0")
}
