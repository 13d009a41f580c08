package hypervisor

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// parseKeyValueLines parses "Key: Value" style tool output into a map.
// The separator is the first colon; both sides are trimmed. The first
// occurrence of a key wins.
func parseKeyValueLines(lines []string) map[string]string {
	out := make(map[string]string)
	for _, line := range lines {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = value
	}
	return out
}

// parseVMList parses `list vms` output into an externalId -> name map.
// Each line has the shape:
//
//	"machine name" {01234567-89ab-cdef-0123-456789abcdef}
//
// Inaccessible machines are discarded. When the same identifier appears
// twice the later entry wins.
func parseVMList(lines []string) map[string]string {
	vms := make(map[string]string)
	for _, line := range lines {
		idx := strings.LastIndex(line, "{")
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		name = strings.Trim(name, `"`)
		id := strings.TrimSpace(line[idx:])
		id = strings.Trim(id, "{}")
		if id == "" {
			continue
		}
		if strings.Contains(name, "<inaccessible>") {
			continue
		}
		vms[id] = name
	}
	return vms
}

// parseKeyValueBlocks parses "Key: Value" output grouped into blocks
// separated by blank lines, one map per block.
func parseKeyValueBlocks(lines []string) []map[string]string {
	var blocks []map[string]string
	current := make(map[string]string)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = make(map[string]string)
			}
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}
		if _, seen := current[key]; !seen {
			current[key] = value
		}
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// Guest property enumeration anchors. A line is valid only when all three
// appear in order; anything else is skipped.
const (
	propNameAnchor      = "Name: "
	propValueAnchor     = ", value:"
	propTimestampAnchor = ", timestamp:"
)

// parseGuestProperty extracts one key/value pair from a guest property
// enumeration line. ok is false when any anchor is missing.
func parseGuestProperty(line string) (key, value string, ok bool) {
	kBegin := strings.Index(line, propNameAnchor)
	if kBegin < 0 {
		return "", "", false
	}
	kEnd := strings.Index(line, propValueAnchor)
	if kEnd < 0 || kEnd < kBegin {
		return "", "", false
	}
	vEnd := strings.Index(line, propTimestampAnchor)
	if vEnd < 0 || vEnd < kEnd {
		return "", "", false
	}
	key = line[kBegin+len(propNameAnchor) : kEnd]
	value = strings.TrimSpace(line[kEnd+len(propValueAnchor) : vEnd])
	return key, value, true
}

// splitFields splits a line on space/tab runs.
func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t'
	})
}

// parseHex32 parses a 32-bit hex register field as dumped by the CPUID
// enumeration.
func parseHex32(s string) (uint32, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// decodeVendorWord appends the four little-endian bytes of a CPUID
// register to the vendor string under construction.
func decodeVendorWord(b []byte, v uint32) []byte {
	return append(b,
		byte(v&0xFF),
		byte((v>>8)&0xFF),
		byte((v>>16)&0xFF),
		byte((v>>24)&0xFF),
	)
}

// PIDFromLogDir scans a machine log directory for the hypervisor frontend
// process ID. The log records a line of the form "Process ID: NNNN",
// terminated at the first carriage return or newline. Returns 0 when the
// log or the line is absent.
func PIDFromLogDir(logDir string) int {
	f, err := os.Open(filepath.Join(logDir, "VBox.log"))
	if err != nil {
		return 0
	}
	defer f.Close()
	return pidFromLog(f)
}

func pidFromLog(r io.Reader) int {
	const marker = "Process ID: "
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		rest := line[idx+len(marker):]
		if end := strings.IndexAny(rest, "\r\n"); end >= 0 {
			rest = rest[:end]
		}
		pid, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return 0
		}
		return pid
	}
	return 0
}
