package reagent

import "errors"

// Validation and dispatch errors returned by [Registry.ResolveArgs]. They are
// never allowed to escape an agent run: [Registry.Execute] converts them to
// error-string observations so the model can retry with a corrected call.
var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArgs      = errors.New("invalid tool arguments")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrEmptyParameter   = errors.New("required parameter is empty")
	ErrWrongType        = errors.New("parameter has wrong type")
)
