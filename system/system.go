package system

import (
	"path/filepath"
	"runtime"

	"emperror.dev/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type Information struct {
	Version string `json:"version"`
	System  System `json:"system"`
}

type System struct {
	Architecture  string `json:"architecture"`
	CPUThreads    int    `json:"cpu_threads"`
	MemoryBytes   uint64 `json:"memory_bytes"`
	KernelVersion string `json:"kernel_version"`
	OS            string `json:"os"`
	OSType        string `json:"os_type"`
}

// DeviceUsage describes the filesystem a path is stored on.
type DeviceUsage struct {
	Device      string  `json:"device"`
	Mountpoint  string  `json:"mountpoint"`
	Fstype      string  `json:"fstype"`
	TotalSpace  uint64  `json:"total_space"`
	UsedSpace   uint64  `json:"used_space"`
	FreeSpace   uint64  `json:"free_space"`
	UsedPercent float64 `json:"used_percent"`
}

// GetInformation returns details about the machine burrow is running on.
func GetInformation() (*Information, error) {
	kernelVersion, err := getKernelVersion()
	if err != nil {
		return nil, errors.WrapIf(err, "system: failed to read kernel version")
	}
	osName, err := getOperatingSystemName()
	if err != nil {
		return nil, errors.WrapIf(err, "system: failed to read operating system name")
	}
	m, err := mem.VirtualMemory()
	if err != nil {
		return nil, errors.WrapIf(err, "system: failed to read memory information")
	}

	return &Information{
		Version: Version,
		System: System{
			Architecture:  runtime.GOARCH,
			CPUThreads:    runtime.NumCPU(),
			MemoryBytes:   m.Total,
			KernelVersion: kernelVersion,
			OS:            osName,
			OSType:        runtime.GOOS,
		},
	}, nil
}

// GetDeviceUsage returns the usage of the filesystem that path is stored on.
// The device and mountpoint are left empty when the partition cannot be
// determined, but the space figures are still filled in.
func GetDeviceUsage(path string) (*DeviceUsage, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	usage, err := disk.Usage(abs)
	if err != nil {
		return nil, errors.WrapIf(err, "system: failed to read disk usage")
	}
	du := &DeviceUsage{
		Fstype:      usage.Fstype,
		TotalSpace:  usage.Total,
		UsedSpace:   usage.Used,
		FreeSpace:   usage.Free,
		UsedPercent: usage.UsedPercent,
	}

	partitions, err := disk.Partitions(true)
	if err != nil {
		return du, nil
	}
	if part, ok := getPartitionForPath(abs, partitions); ok {
		du.Device = part.Device
		du.Mountpoint = part.Mountpoint
		if part.Fstype != "" {
			du.Fstype = part.Fstype
		}
	}
	return du, nil
}

// longestMountpoint returns the partition whose mountpoint is the deepest
// ancestor of path.
func longestMountpoint(path string, partitions []disk.PartitionStat) (disk.PartitionStat, bool) {
	var best disk.PartitionStat
	found := false
	for _, part := range partitions {
		rel, err := filepath.Rel(part.Mountpoint, path)
		if err != nil || rel == ".." || (len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)) {
			continue
		}
		if !found || len(part.Mountpoint) > len(best.Mountpoint) {
			best, found = part, true
		}
	}
	return best, found
}
