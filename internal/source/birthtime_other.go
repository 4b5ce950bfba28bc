//go:build !linux

package source

import "time"

func birthTime(string) (time.Time, bool) {
	return time.Time{}, false
}
