package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "duplicate", err: DuplicateName(errors.New("E11000")), want: KindDuplicateName},
		{name: "wrapped user not found", err: fmt.Errorf("query: %w", UserNotFound("abc")), want: KindUserNotFound},
		{name: "store", err: Store(errors.New("boom")), want: KindStore},
		{name: "route", err: NotFound(), want: KindNotFound},
		{name: "plain error", err: errors.New("plain"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsDomain(t *testing.T) {
	assert.True(t, IsDomain(DuplicateName(nil)))
	assert.True(t, IsDomain(UserNotFound("x")))
	assert.True(t, IsDomain(StoreHidden(errors.New("dial tcp"))))
	assert.False(t, IsDomain(Validation()))
	assert.False(t, IsDomain(NotFound()))
	assert.False(t, IsDomain(errors.New("plain")))
}

func TestStoreMessages(t *testing.T) {
	underlying := errors.New("connection refused")

	assert.Equal(t, "connection refused", Store(underlying).Error())
	assert.Equal(t, MsgStoreDown, StoreHidden(underlying).Error())
	assert.ErrorIs(t, StoreHidden(underlying), underlying)
}

func TestFromValidatorReportsFirstField(t *testing.T) {
	type payload struct {
		UserName    string `json:"userName" validate:"required"`
		Description string `json:"description" validate:"required"`
	}

	err := FromValidator(NewValidator().Struct(payload{}))
	require.Error(t, err)
	require.True(t, Is(err, KindValidation))

	var fault *Error
	require.ErrorAs(t, err, &fault)
	require.Len(t, fault.Fields, 2)
	assert.Equal(t, "userName", fault.Fields[0].Field)
	assert.Equal(t, "Path `userName` is required.", fault.FirstFieldMessage())
}

func TestFromValidatorPassesOtherErrors(t *testing.T) {
	plain := errors.New("plain")

	assert.Same(t, plain, FromValidator(plain))
	assert.NoError(t, FromValidator(nil))
}
