package scene

import "errors"

var ErrInvalidRecord = errors.New("invalid scene record")
