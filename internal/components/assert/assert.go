package assert

import "fmt"

// NotNil panics when value is nil. It is meant for constructor arguments
// where a missing dependency is a programming error.
func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

// Between panics when value falls outside of [lo, hi].
func Between[T ~int | ~int64 | ~float64](value, lo, hi T) {
	if value < lo || value > hi {
		panic(fmt.Sprintf("expected %v to be within [%v, %v]", value, lo, hi))
	}
}
