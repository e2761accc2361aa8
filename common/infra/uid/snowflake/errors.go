package snowflake

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrConfiguration     = errors.New("invalid generator configuration")
	ErrClockRegression   = errors.New("clock moved backwards")
	ErrClockStalled      = errors.New("clock did not advance")
	ErrTimestampOverflow = errors.New("timestamp exceeds 41 bits")
	ErrInvalidEncoding   = errors.New("no such encoding")
)

// ClockRegressionError 时钟回拨，Last为上一次发号时间，Now为当前读到的时间
type ClockRegressionError struct {
	Last int64
	Now  int64
}

func (e *ClockRegressionError) Error() string {
	return fmt.Sprintf("clock moved backwards, refusing to generate id for %d milliseconds", e.Last-e.Now)
}

func (e *ClockRegressionError) Is(target error) bool {
	return target == ErrClockRegression
}

// Duration 回拨的幅度
func (e *ClockRegressionError) Duration() time.Duration {
	return time.Duration(e.Last-e.Now) * time.Millisecond
}
