package bgerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImmutable(t *testing.T) {
	e := New(400, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")
	changed := e.Msg("%s", "changed")
	assert.NotEqual(t, "changed", e.Message)
	assert.Equal(t, "changed", changed.Message)

	withExtras := e.WithExtras(Extras{"field": "entity"})
	assert.Nil(t, e.Extras)
	assert.NotNil(t, withExtras.Extras)
}

func TestNewInvalidViolations(t *testing.T) {
	e := NewInvalidViolations([]string{"entity is required"})
	assert.Equal(t, CodeInvalidRequest, e.ErrorCode)
	assert.Nil(t, ErrInvalidReq.Extras, "shared sentinel must stay untouched")
	assert.Equal(t, "INVALID_REQUEST: invalid request: some or all request parameters are invalid", e.Error())
}
