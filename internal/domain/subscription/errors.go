package subscription

import "fmt"

// ValidationError 表示使用者輸入不合法，屬於可直接回給前端的錯誤。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError 表示持久層故障。排程中遇到它代表無法記錄進度，整輪中止。
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("subscription store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
