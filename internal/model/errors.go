package model

import (
	"errors"
	"fmt"
)

var errEmptyTimestamp = errors.New("empty timestamp")

type TimestampError struct {
	Value string
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("unsupported timestamp format: %q", e.Value)
}
