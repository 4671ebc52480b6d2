package batch

import (
	"errors"
	"fmt"
)

// Status 行状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Event 状态迁移事件
type Event int

const (
	EventStart Event = iota
	EventSucceed
	EventFail
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventSucceed:
		return "succeed"
	case EventFail:
		return "fail"
	case EventReset:
		return "reset"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// ErrInvalidTransition 非法的状态迁移
var ErrInvalidTransition = errors.New("invalid status transition")

// Transition 纯函数形式的状态机：
//
//	pending|error --start--> processing
//	processing --succeed--> completed
//	processing --fail--> error
//	any --reset--> pending
func Transition(s Status, e Event) (Status, error) {
	switch {
	case e == EventReset:
		return StatusPending, nil
	case e == EventStart && (s == StatusPending || s == StatusError):
		return StatusProcessing, nil
	case e == EventSucceed && s == StatusProcessing:
		return StatusCompleted, nil
	case e == EventFail && s == StatusProcessing:
		return StatusError, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}
