package hypervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixed CPUID rows for an Intel host. Leaf 0 registers spell out
// "GenuineIntel" (EBX "Genu", EDX "ineI", ECX "ntel"); leaf 1 ECX has the
// vmx bit (0x20) set; the extended leaf ECX has the long-mode bit
// (0x20000000) set and the svm bit (0x2) clear.
var hostCPUIDRows = []string{
	"Host CPUIDs:",
	"Leaf no.  EAX      EBX      ECX      EDX",
	"00000000  0000000d 756e6547 6c65746e 49656e69",
	"00000001  000306a9 02100800 7fbae3ff bfebfbff",
	"80000001  00000000 00000000 20000001 28100800",
	"c0000000  00000000 00000000 00000000 00000000",
}

func capabilityResponses() map[string]fakeResult {
	responses := validResponses()
	responses["list hostcpuids"] = fakeResult{stdout: hostCPUIDRows}
	responses["list systemproperties"] = fakeResult{stdout: []string{
		"Maximum guest RAM size:          16384",
		"Virtual disk limit (info):       2097152",
		"Maximum guest CPU count:         32",
		"Default Guest Additions ISO:     /usr/share/virtualbox/VBoxGuestAdditions.iso",
	}}
	return responses
}

func TestCapabilities(t *testing.T) {
	t.Run("decodes the CPU identity", func(t *testing.T) {
		inst, _ := newTestInstance(t, capabilityResponses())
		require.True(t, inst.Validate())

		caps, err := inst.Capabilities()
		require.NoError(t, err)

		assert.Equal(t, "GenuineIntel", caps.CPU.Vendor)

		// EAX 0x000306a9: stepping 9, model 0xa, family 6, type 0,
		// extended model 3, extended family 0.
		assert.Equal(t, 9, caps.CPU.Stepping)
		assert.Equal(t, 10, caps.CPU.Model)
		assert.Equal(t, 6, caps.CPU.Family)
		assert.Equal(t, 0, caps.CPU.Type)
		assert.Equal(t, 3, caps.CPU.ExtModel)
		assert.Equal(t, 0, caps.CPU.ExtFamily)

		assert.Equal(t, uint32(0x7fbae3ff), caps.CPU.FeaturesECX)
		assert.Equal(t, uint32(0xbfebfbff), caps.CPU.FeaturesEDX)
		assert.Equal(t, uint32(0x20000001), caps.CPU.ExtFeaturesECX)

		assert.True(t, caps.CPU.HasHWVirt, "vmx bit should imply hardware virtualization")
		assert.True(t, caps.CPU.Has64Bit, "long mode bit should imply 64-bit support")
	})

	t.Run("applies resource ceilings from system properties", func(t *testing.T) {
		inst, _ := newTestInstance(t, capabilityResponses())
		require.True(t, inst.Validate())

		caps, err := inst.Capabilities()
		require.NoError(t, err)
		assert.Equal(t, 32, caps.MaxCPUs)
		assert.Equal(t, 16384, caps.MaxMemoryMB)
		assert.Equal(t, int64(2048), caps.MaxDiskMB, "disk ceiling is unit converted to MB")
	})

	t.Run("defaults apply when keys are absent", func(t *testing.T) {
		responses := capabilityResponses()
		responses["list systemproperties"] = fakeResult{stdout: []string{
			"API version:                     4_3",
		}}
		inst, _ := newTestInstance(t, responses)
		require.True(t, inst.Validate())

		caps, err := inst.Capabilities()
		require.NoError(t, err)
		assert.Equal(t, 1, caps.MaxCPUs)
		assert.Equal(t, 1024, caps.MaxMemoryMB)
		assert.Equal(t, int64(2048), caps.MaxDiskMB)
	})

	t.Run("amd svm bit implies hardware virtualization", func(t *testing.T) {
		responses := capabilityResponses()
		responses["list hostcpuids"] = fakeResult{stdout: []string{
			"00000000  0000000d 68747541 444d4163 69746e65",
			"00000001  00600f20 00000800 00802209 178bfbff",
			"80000001  00000000 00000000 20000003 2bd3fb7f",
		}}
		inst, _ := newTestInstance(t, responses)
		require.True(t, inst.Validate())

		caps, err := inst.Capabilities()
		require.NoError(t, err)
		assert.Equal(t, "AuthenticAMD", caps.CPU.Vendor)
		assert.True(t, caps.CPU.HasHWVirt)
	})

	t.Run("query failure", func(t *testing.T) {
		responses := capabilityResponses()
		responses["list hostcpuids"] = fakeResult{exit: 1}
		inst, _ := newTestInstance(t, responses)
		require.True(t, inst.Validate())

		_, err := inst.Capabilities()
		assert.ErrorIs(t, err, ErrQuery)
	})

	t.Run("empty output", func(t *testing.T) {
		responses := capabilityResponses()
		responses["list hostcpuids"] = fakeResult{}
		inst, _ := newTestInstance(t, responses)
		require.True(t, inst.Validate())

		_, err := inst.Capabilities()
		assert.ErrorIs(t, err, ErrExternal)
	})
}
