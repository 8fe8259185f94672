// SPDX-License-Identifier: EPL-2.0

package backend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	var got []error
	prev := SetErrorHandler(func(err error) { got = append(got, err) })
	defer SetErrorHandler(prev)

	assert.True(t, Check(nil))
	assert.Empty(t, got)

	boom := errors.New("boom")
	assert.False(t, Check(boom))
	assert.Equal(t, []error{boom}, got)
}

func TestCheckWithoutHandler(t *testing.T) {
	prev := SetErrorHandler(nil)
	defer SetErrorHandler(prev)

	assert.False(t, Check(ErrInvalidSource))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.Equal(t, "max_distance", ParamMaxDistance.String())
	assert.Equal(t, "param(42)", Param(42).String())
}
