package linktable_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/linktable"
)

func TestConfigurationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := linktable.NewConfigurationError("Student", "courses", "mappedBy %q not found", "students")
		assert.Equal(t, `linktable: mapping Student.courses: mappedBy "students" not found`, err.Error())

		err = linktable.NewConfigurationError("Student", "", "no identifier")
		assert.Equal(t, "linktable: mapping Student: no identifier", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := linktable.NewConfigurationError("Course", "", "bad")
		assert.True(t, errors.Is(err, linktable.ErrConfiguration))
		assert.False(t, errors.Is(err, linktable.ErrUnsupported))
	})

	t.Run("IsConfigurationError", func(t *testing.T) {
		err := linktable.NewConfigurationError("Course", "", "bad")
		assert.True(t, linktable.IsConfigurationError(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, linktable.IsConfigurationError(wrapped))

		// Sentinel error
		assert.True(t, linktable.IsConfigurationError(linktable.ErrConfiguration))

		// Non-matching error
		assert.False(t, linktable.IsConfigurationError(errors.New("other error")))
		assert.False(t, linktable.IsConfigurationError(nil))
	})
}

func TestUnsupportedOperationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := linktable.NewUnsupportedOperationError("containsKey", "collection is not indexed")
		assert.Equal(t, "linktable: containsKey is not supported: collection is not indexed", err.Error())
	})

	t.Run("IsUnsupportedOperation", func(t *testing.T) {
		err := linktable.NewUnsupportedOperationError("get", "collection is not indexed")
		assert.True(t, linktable.IsUnsupportedOperation(err))
		assert.True(t, errors.Is(err, linktable.ErrUnsupported))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, linktable.IsUnsupportedOperation(wrapped))

		assert.False(t, linktable.IsUnsupportedOperation(linktable.NewConfigurationError("A", "", "x")))
		assert.False(t, linktable.IsUnsupportedOperation(nil))
	})
}

func TestIsNotManaged(t *testing.T) {
	assert.True(t, linktable.IsNotManaged(linktable.ErrNotManaged))
	assert.True(t, linktable.IsNotManaged(fmt.Errorf("course: %w", linktable.ErrNotManaged)))
	assert.False(t, linktable.IsNotManaged(errors.New("other error")))
	assert.False(t, linktable.IsNotManaged(nil))
}
