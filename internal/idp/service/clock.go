package service

import "time"

func nowFrom(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now()
}
