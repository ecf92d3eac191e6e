package recipecostrpc

import (
	"errors"
	"fmt"
	"recipecost"
)

const (
	CodeOK int32 = 0

	CodeNoFunc      int32 = -201
	CodeNoSuchFunc  int32 = -202
	CodeNoArg       int32 = -204
	CodeUnmarshal   int32 = -205
	CodeExecFunc    int32 = -206
	CodeBadResponse int32 = -207

	CodeConversionNotFound int32 = -301
	CodeIncompatibleUnits  int32 = -302
	CodeInvalidInput       int32 = -303
	CodeNotFound           int32 = -304
)

var (
	ErrReqHasNoFunc = errors.New("request has no function")
	ErrNoSuchFunc   = errors.New("no such function")
	ErrReqHasNoArg  = errors.New("request has no argument")
)

// RemoteError is a failed response as seen by a client. It matches the
// recipecost sentinel errors for the codes that carry one.
type RemoteError struct {
	Code    int32
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	switch e.Code {
	case CodeConversionNotFound:
		return target == recipecost.ErrConversionNotFound
	case CodeIncompatibleUnits:
		return target == recipecost.ErrIncompatibleUnits || target == recipecost.ErrConversionNotFound
	case CodeInvalidInput:
		return target == recipecost.ErrInvalidInput
	case CodeNotFound:
		return target == recipecost.ErrNotFound
	}
	return false
}

func codeForError(err error) int32 {
	switch {
	case errors.Is(err, recipecost.ErrIncompatibleUnits):
		return CodeIncompatibleUnits
	case errors.Is(err, recipecost.ErrConversionNotFound):
		return CodeConversionNotFound
	case errors.Is(err, recipecost.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, recipecost.ErrNotFound):
		return CodeNotFound
	}
	return CodeExecFunc
}
