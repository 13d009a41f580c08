package hypervisor

import (
	"fmt"
	"strconv"
)

// CPUInfo is the host CPU identity and feature set as reported by the
// hypervisor's CPUID enumeration.
type CPUInfo struct {
	// Vendor is the 12-character CPUID vendor string, e.g. "GenuineIntel".
	Vendor string

	// Raw feature bit-fields: leaf 1 ECX/EDX and extended leaf
	// 80000001 ECX/EDX.
	FeaturesECX    uint32
	FeaturesEDX    uint32
	ExtFeaturesECX uint32
	ExtFeaturesEDX uint32

	Stepping  int
	Model     int
	Family    int
	Type      int
	ExtModel  int
	ExtFamily int

	// HasHWVirt is set when either the Intel vmx or the AMD svm feature
	// bit is present.
	HasHWVirt bool

	// Has64Bit is the long-mode bit from the extended leaf.
	Has64Bit bool
}

// Capabilities describes what the hypervisor can host on this machine.
type Capabilities struct {
	CPU CPUInfo

	MaxCPUs     int
	MaxMemoryMB int
	MaxDiskMB   int64
}

// Resource ceiling defaults applied when the system properties omit a key.
const (
	defaultMaxCPUs     = 1
	defaultMaxMemoryMB = 1024
	defaultMaxDiskMB   = 2048
)

// Capabilities probes the host CPU through the CPUID enumeration and the
// resource ceilings through the system properties. Unknown CPUID leaves
// are ignored.
func (i *Instance) Capabilities() (*Capabilities, error) {
	if !i.valid {
		return nil, ErrInvalidAdapter
	}

	unlock := i.locks.Lock(LockGeneric)
	exit, lines, _, err := i.runner.Run([]string{"list", "hostcpuids"}, i.execCfg)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("list hostcpuids: %w", err)
	}
	if exit != 0 {
		return nil, fmt.Errorf("list hostcpuids exited %d: %w", exit, ErrQuery)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty hostcpuids output: %w", ErrExternal)
	}

	caps := &Capabilities{}
	for _, line := range lines {
		parts := splitFields(line)
		if len(parts) < 5 {
			continue
		}

		// Each row is: leaf EAX EBX ECX EDX, all hex.
		switch parts[0] {
		case "00000000":
			// The vendor string interleaves EBX, EDX, ECX in that
			// order, each register contributing four little-endian
			// bytes.
			ebx, okB := parseHex32(parts[2])
			ecx, okC := parseHex32(parts[3])
			edx, okD := parseHex32(parts[4])
			if !okB || !okC || !okD {
				continue
			}
			vendor := decodeVendorWord(nil, ebx)
			vendor = decodeVendorWord(vendor, edx)
			vendor = decodeVendorWord(vendor, ecx)
			caps.CPU.Vendor = string(vendor)

		case "00000001":
			if v, ok := parseHex32(parts[3]); ok {
				caps.CPU.FeaturesECX = v
			}
			if v, ok := parseHex32(parts[4]); ok {
				caps.CPU.FeaturesEDX = v
			}
			if eax, ok := parseHex32(parts[1]); ok {
				caps.CPU.Stepping = int(eax & 0xF)
				caps.CPU.Model = int((eax & 0xF0) >> 4)
				caps.CPU.Family = int((eax & 0xF00) >> 8)
				caps.CPU.Type = int((eax & 0x3000) >> 12)
				caps.CPU.ExtModel = int((eax & 0xF0000) >> 16)
				caps.CPU.ExtFamily = int((eax & 0xFF00000) >> 20)
			}

		case "80000001":
			if v, ok := parseHex32(parts[3]); ok {
				caps.CPU.ExtFeaturesECX = v
			}
			if v, ok := parseHex32(parts[4]); ok {
				caps.CPU.ExtFeaturesEDX = v
			}
		}
	}

	// Intel 'vmx' is leaf 1 ECX bit 5, AMD 'svm' is the extended leaf
	// ECX bit 1. Long mode 'lm' is the extended leaf ECX bit 29.
	caps.CPU.HasHWVirt = caps.CPU.FeaturesECX&0x20 != 0 || caps.CPU.ExtFeaturesECX&0x2 != 0
	caps.CPU.Has64Bit = caps.CPU.ExtFeaturesECX&0x20000000 != 0

	unlock = i.locks.Lock(LockGeneric)
	exit, lines, _, err = i.runner.Run([]string{"list", "systemproperties"}, i.execCfg)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("list systemproperties: %w", err)
	}
	if exit != 0 {
		return nil, fmt.Errorf("list systemproperties exited %d: %w", exit, ErrQuery)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty systemproperties output: %w", ErrExternal)
	}

	caps.MaxCPUs = defaultMaxCPUs
	caps.MaxMemoryMB = defaultMaxMemoryMB
	caps.MaxDiskMB = defaultMaxDiskMB

	props := parseKeyValueLines(lines)
	if v, ok := props["Maximum guest RAM size"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			caps.MaxMemoryMB = n
		}
	}
	if v, ok := props["Virtual disk limit (info)"]; ok {
		// Advertised in KB; the ceiling is tracked in MB.
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			caps.MaxDiskMB = n / 1024
		}
	}
	if v, ok := props["Maximum guest CPU count"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			caps.MaxCPUs = n
		}
	}

	return caps, nil
}
