// Package diag reports on the process's Linux capabilities at startup,
// so a misconfigured deployment fails with an explicit diagnostic
// instead of a confusing "permission denied" deep inside evdev/uinput.
package diag

import (
	"fmt"

	"github.com/syndtr/gocapability/capability"
)

// RequiredCaps are the capabilities the driver needs: CAP_DAC_OVERRIDE
// to open arbitrary /dev/input nodes unreadable by a non-root user, and
// CAP_SYS_ADMIN, which /dev/uinput's ioctl interface requires on most
// kernels when not running as root.
var RequiredCaps = []capability.Cap{
	capability.CAP_DAC_OVERRIDE,
	capability.CAP_SYS_ADMIN,
}

// Report is the result of checking the running process's effective
// capability set against RequiredCaps.
type Report struct {
	Missing []capability.Cap
}

// OK reports whether every required capability is present.
func (r Report) OK() bool { return len(r.Missing) == 0 }

func (r Report) String() string {
	if r.OK() {
		return "all required capabilities present"
	}
	msg := "missing capabilities:"
	for _, c := range r.Missing {
		msg += " " + c.String()
	}
	return msg
}

// CheckSelf loads the current process's effective capability set and
// reports which of RequiredCaps are absent.
func CheckSelf() (Report, error) {
	caps, err := capability.NewPid2(0)
	if err != nil {
		return Report{}, fmt.Errorf("loading process capabilities: %w", err)
	}
	if err := caps.Load(); err != nil {
		return Report{}, fmt.Errorf("loading process capabilities: %w", err)
	}

	var missing []capability.Cap
	for _, c := range RequiredCaps {
		if !caps.Get(capability.EFFECTIVE, c) {
			missing = append(missing, c)
		}
	}
	return Report{Missing: missing}, nil
}
