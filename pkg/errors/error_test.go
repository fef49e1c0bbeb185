package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeValidation, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeValidation, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeUnknownStrategy, "strategy %q is not registered", "ema_cross")
	suite.NotNil(err)
	suite.Equal(ErrCodeUnknownStrategy, err.Code)
	suite.Equal(`strategy "ema_cross" is not registered`, err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeQueryFailed, "query failed", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Equal("query failed", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeNotFound, cause, "config %s not found", "abc123")
	suite.NotNil(err)
	suite.Equal(ErrCodeNotFound, err.Code)
	suite.Equal("config abc123 not found", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeValidation, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNotFound, "config not found", cause)
	suite.Equal("[300] config not found: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeQueryFailed, "query failed", cause)
	suite.Equal(cause, err.Unwrap())
	suite.True(errors.Is(err, cause))
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeStrategyMismatch, "strategy mismatch")
	suite.Equal(ErrCodeStrategyMismatch, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeWrapped() {
	err := fmt.Errorf("outer: %w", New(ErrCodeNotFound, "config not found"))
	suite.Equal(ErrCodeNotFound, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodePlainError() {
	err := errors.New("plain error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeNotFound, "config not found")
	suite.True(HasCode(err, ErrCodeNotFound))
	suite.False(HasCode(err, ErrCodeValidation))
}

func (suite *ErrorTestSuite) TestIsValidation() {
	suite.True(IsValidation(New(ErrCodeValidation, "bad value")))
	suite.True(IsValidation(New(ErrCodeOutOfBounds, "too big")))
	suite.True(IsValidation(New(ErrCodeUnknownParameter, "no such key")))
	suite.False(IsValidation(New(ErrCodeNotFound, "missing")))
	suite.False(IsValidation(errors.New("plain")))
}
