// Package sysinfo collects host metadata recorded alongside benchmark
// runs.
package sysinfo

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/sirupsen/logrus"
)

// Info describes the machine the harness runs on. Hostname is part of
// every run's identity; the rest is logged for context when comparing
// results across hosts.
type Info struct {
	Hostname      string
	OS            string
	Platform      string
	KernelVersion string
	CPUModel      string
	CPUCores      int
	MemoryTotalGB float64
}

// Collect gathers host metadata. Failures of individual probes degrade
// to empty fields; only a missing hostname is an error since run
// identity depends on it.
func Collect(ctx context.Context, log logrus.FieldLogger) (*Info, error) {
	info := &Info{}

	if hostInfo, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = hostInfo.Hostname
		info.OS = hostInfo.OS
		info.Platform = hostInfo.Platform
		info.KernelVersion = hostInfo.KernelVersion
	} else {
		log.WithError(err).Debug("Host probe failed")
	}

	if info.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, err
		}

		info.Hostname = hostname
	}

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
		info.CPUCores = len(cpus)
	} else if err != nil {
		log.WithError(err).Debug("CPU probe failed")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryTotalGB = float64(vm.Total) / (1024 * 1024 * 1024)
	} else {
		log.WithError(err).Debug("Memory probe failed")
	}

	return info, nil
}

// LogFields returns the info as structured log fields.
func (i *Info) LogFields() logrus.Fields {
	return logrus.Fields{
		"hostname":  i.Hostname,
		"os":        i.OS,
		"platform":  i.Platform,
		"kernel":    i.KernelVersion,
		"cpu_model": i.CPUModel,
		"cpu_cores": i.CPUCores,
		"memory_gb": i.MemoryTotalGB,
	}
}
