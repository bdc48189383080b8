package util

import (
	"errors"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestTimeout(t *testing.T) {
	x := time.Millisecond * 50
	err := Timeout(func() error {
		time.Sleep(x * 4)
		return errors.New("should not get called")
	}, x)
	assert.ErrorContains(t, err, "Timeout")
}

func TestTimeoutReturnsResult(t *testing.T) {
	expected := errors.New("failed early")
	err := Timeout(func() error { return expected }, time.Second)
	assert.Equal(t, err, expected)
	err = Timeout(func() error { return nil }, time.Second)
	assert.NilError(t, err)
}
