package hypervisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValueLines(t *testing.T) {
	t.Run("parses colon separated pairs", func(t *testing.T) {
		data := parseKeyValueLines([]string{
			"Default machine folder:          /home/user/VirtualBox VMs",
			"Maximum guest RAM size:          16384",
		})
		assert.Equal(t, "/home/user/VirtualBox VMs", data["Default machine folder"])
		assert.Equal(t, "16384", data["Maximum guest RAM size"])
	})

	t.Run("first occurrence wins", func(t *testing.T) {
		data := parseKeyValueLines([]string{
			"Key: first",
			"Key: second",
		})
		assert.Equal(t, "first", data["Key"])
	})

	t.Run("skips lines without separator", func(t *testing.T) {
		data := parseKeyValueLines([]string{"no separator here", "Key: value"})
		assert.Len(t, data, 1)
	})
}

func TestParseVMList(t *testing.T) {
	t.Run("extracts name and identifier", func(t *testing.T) {
		vms := parseVMList([]string{
			`"cernvm-a" {9b2a4e5c-1111-2222-3333-444455556666}`,
			`"cernvm-b" {aaaabbbb-cccc-dddd-eeee-ffff00001111}`,
		})
		require.Len(t, vms, 2)
		assert.Equal(t, "cernvm-a", vms["9b2a4e5c-1111-2222-3333-444455556666"])
		assert.Equal(t, "cernvm-b", vms["aaaabbbb-cccc-dddd-eeee-ffff00001111"])
	})

	t.Run("discards inaccessible machines", func(t *testing.T) {
		vms := parseVMList([]string{
			`"<inaccessible>" {dead0000-0000-0000-0000-000000000000}`,
			`"alive" {11110000-0000-0000-0000-000000000000}`,
		})
		require.Len(t, vms, 1)
		assert.Equal(t, "alive", vms["11110000-0000-0000-0000-000000000000"])
	})

	t.Run("later duplicate wins", func(t *testing.T) {
		vms := parseVMList([]string{
			`"old" {11110000-0000-0000-0000-000000000000}`,
			`"new" {11110000-0000-0000-0000-000000000000}`,
		})
		assert.Equal(t, "new", vms["11110000-0000-0000-0000-000000000000"])
	})

	t.Run("skips malformed lines", func(t *testing.T) {
		vms := parseVMList([]string{"not a vm line", ""})
		assert.Empty(t, vms)
	})
}

func TestParseGuestProperty(t *testing.T) {
	t.Run("parses a valid line", func(t *testing.T) {
		key, value, ok := parseGuestProperty("Name: foo, value: bar, timestamp: 123")
		require.True(t, ok)
		assert.Equal(t, "foo", key)
		assert.Equal(t, "bar", value)
	})

	t.Run("missing anchors drop the line", func(t *testing.T) {
		for _, line := range []string{
			"foo, value: bar, timestamp: 123",
			"Name: foo, timestamp: 123",
			"Name: foo, value: bar",
			"",
		} {
			_, _, ok := parseGuestProperty(line)
			assert.False(t, ok, "line %q should not parse", line)
		}
	})

	t.Run("value may contain commas", func(t *testing.T) {
		key, value, ok := parseGuestProperty("Name: /VirtualBox/GuestInfo/Net/0/V4/IP, value: 10.0.2.15, timestamp: 1402486879043588000")
		require.True(t, ok)
		assert.Equal(t, "/VirtualBox/GuestInfo/Net/0/V4/IP", key)
		assert.Equal(t, "10.0.2.15", value)
	})
}

func TestParseKeyValueBlocks(t *testing.T) {
	blocks := parseKeyValueBlocks([]string{
		"UUID:        1111",
		"Location:    /disks/a.vdi",
		"",
		"UUID:        2222",
		"Location:    /disks/b.vdi",
	})
	require.Len(t, blocks, 2)
	assert.Equal(t, "1111", blocks[0]["UUID"])
	assert.Equal(t, "/disks/b.vdi", blocks[1]["Location"])
}

func TestPIDFromLog(t *testing.T) {
	t.Run("extracts the process id", func(t *testing.T) {
		log := "00:00:02.586 VirtualBox VM 4.3.12 r93733 linux.amd64\n" +
			"00:00:02.588 Process ID: 28164\n" +
			"00:00:02.590 Package type: LINUX_64BITS_GENERIC\n"
		assert.Equal(t, 28164, pidFromLog(strings.NewReader(log)))
	})

	t.Run("returns zero when absent", func(t *testing.T) {
		assert.Equal(t, 0, pidFromLog(strings.NewReader("no pid here\n")))
	})
}

func TestSplitOutputLines(t *testing.T) {
	assert.Nil(t, splitOutputLines(""))
	assert.Equal(t, []string{"a", "b"}, splitOutputLines("a\nb\n"))
	assert.Equal(t, []string{"a", "b"}, splitOutputLines("a\r\nb\r\n"))
	assert.Equal(t, []string{"a", "", "b"}, splitOutputLines("a\n\nb"))
}
