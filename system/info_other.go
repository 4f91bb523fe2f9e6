//go:build !linux && !windows

package system

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

func getKernelVersion() (string, error) {
	return host.KernelVersion()
}

func getOperatingSystemName() (string, error) {
	platform, _, version, err := host.PlatformInformation()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(platform + " " + version), nil
}
