package idle

import (
	"errors"
	"fmt"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32           = syscall.NewLazyDLL("user32.dll")
	kernel32         = syscall.NewLazyDLL("kernel32.dll")
	getLastInputInfo = user32.NewProc("GetLastInputInfo")
	getTickCount     = kernel32.NewProc("GetTickCount")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

type win32Provider struct{}

func newProvider() Provider {
	return win32Provider{}
}

func (win32Provider) IdleDuration() (time.Duration, error) {
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}

	ok, _, err := getLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ok == 0 {
		if err == nil {
			err = errors.New("unknown error")
		}

		return 0, fmt.Errorf("get last input info: %w", err)
	}

	// both counters are 32-bit millisecond ticks and wrap together
	tick, _, _ := getTickCount.Call()
	idleMillis := uint32(tick) - info.dwTime

	return time.Duration(idleMillis) * time.Millisecond, nil
}
