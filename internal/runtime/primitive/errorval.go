package primitive

import "github.com/emojicode/emojicode/internal/runtime/gc"

const errorTag = "Error"

// NewError constructs an Error-tagged Object carrying the diagnostic
// message and the native error code the raising primitive reported.
func NewError(message string, code int64) *gc.Object {
	return &gc.Object{Tag: errorTag, Message: message, Code: code}
}

func ErrorMessage(o *gc.Object) string { return o.Message }
func ErrorCode(o *gc.Object) int64     { return o.Code }
