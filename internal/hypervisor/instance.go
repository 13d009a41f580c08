package hypervisor

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/vboxkit/vboxkit/internal/progress"
)

// InfoErrorKey is the sentinel key in a machine info result when the
// underlying command exited non-zero. Its value is the numeric exit code.
const InfoErrorKey = ":ERROR:"

// extPackName is the marker the extension pack enumeration is scanned for.
const extPackName = "Oracle VM VirtualBox Extension Pack"

// SessionLoader is the registry hook consumed by the readiness workflow.
// Implemented by session.Registry; injected to keep the session layer
// above this package.
type SessionLoader interface {
	Loaded() bool
	LoadSessions(pf progress.Task) error
}

// ExtPackInstaller installs the extension pack. Implemented by
// extpack.Installer.
type ExtPackInstaller interface {
	Install(pf progress.Task) error
}

// Instance is the engine's view of one locally installed hypervisor. It
// owns the command runner, the lock table serializing tool invocations,
// and the validity state every operation is gated on.
type Instance struct {
	runner CommandRunner
	locks  *LockTable
	log    *slog.Logger

	// execCfg is the default per-call configuration; operations copy and
	// override it as needed.
	execCfg ExecConfig

	// repairCommand is the privileged command used to rebuild the kernel
	// driver on linux hosts.
	repairCommand []string

	version        Version
	guestAdditions string
	valid          bool
	driverLoaded   bool

	loader    SessionLoader
	installer ExtPackInstaller
}

// NewInstance returns an instance driving the hypervisor through runner.
// A nil logger uses slog.Default().
func NewInstance(runner CommandRunner, execCfg ExecConfig, log *slog.Logger) *Instance {
	if log == nil {
		log = slog.Default()
	}
	return &Instance{
		runner:        runner,
		locks:         NewLockTable(),
		log:           log,
		execCfg:       execCfg,
		repairCommand: []string{"sudo", "/sbin/vboxconfig"},
		driverLoaded:  true,
	}
}

// SetSessionLoader wires the registry's lazy-load hook.
func (i *Instance) SetSessionLoader(loader SessionLoader) {
	i.loader = loader
}

// SetExtPackInstaller wires the extension pack installer.
func (i *Instance) SetExtPackInstaller(installer ExtPackInstaller) {
	i.installer = installer
}

// Lock acquires a named lock from the instance's table.
func (i *Instance) Lock(name string) func() {
	return i.locks.Lock(name)
}

// Version returns the hypervisor version extracted by the last
// successful Validate.
func (i *Instance) Version() Version {
	return i.version
}

// GuestAdditionsPath returns the guest tooling image path discovered by
// Validate, or empty when none was advertised.
func (i *Instance) GuestAdditionsPath() string {
	return i.guestAdditions
}

// Valid reports whether the last Validate pass succeeded.
func (i *Instance) Valid() bool {
	return i.valid
}

// DriverLoaded reports whether the host kernel driver was loaded at the
// last Validate pass. False is the recoverable condition the readiness
// workflow repairs.
func (i *Instance) DriverLoaded() bool {
	return i.driverLoaded
}

// Exec runs one tool command. Exposed for collaborators that share the
// instance's runner and lock table, such as the extension pack installer.
func (i *Instance) Exec(args []string, cfg ExecConfig) (int, []string, []string, error) {
	return i.runner.Run(args, cfg)
}

// ExecConfig returns a copy of the default per-call configuration.
func (i *Instance) ExecConfig() ExecConfig {
	return i.execCfg
}

// ListVMs enumerates live machines as externalId -> name, discarding
// inaccessible entries. Meant to run under the session-update lock during
// reconciliation; takes no lock of its own.
func (i *Instance) ListVMs() (map[string]string, error) {
	if !i.valid {
		return nil, ErrInvalidAdapter
	}

	exit, out, _, err := i.runner.Run([]string{"list", "vms"}, i.execCfg)
	if err != nil {
		return nil, fmt.Errorf("list vms: %w", err)
	}
	if exit != 0 {
		return nil, fmt.Errorf("list vms exited %d: %w", exit, ErrQuery)
	}
	return parseVMList(out), nil
}

// MachineInfo dumps one machine's info as a key/value map under the
// machine's own lock. The timeout overrides the default when positive.
// A non-zero tool exit yields the InfoErrorKey sentinel entry instead of
// an error, so "machine unknown" stays distinguishable from "tool broken".
func (i *Instance) MachineInfo(externalID string, timeout time.Duration) (map[string]string, error) {
	if !i.valid {
		return nil, ErrInvalidAdapter
	}

	cfg := i.execCfg
	if timeout > 0 {
		cfg = cfg.WithTimeout(timeout)
	}

	unlock := i.locks.Lock(externalID)
	exit, out, _, err := i.runner.Run([]string{"showvminfo", externalID}, cfg)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("showvminfo %s: %w", externalID, err)
	}
	if exit != 0 {
		return map[string]string{InfoErrorKey: strconv.Itoa(exit)}, nil
	}

	return parseKeyValueLines(out), nil
}

// GetProperty reads one guest property. Missing properties and tool
// failures both read as empty.
func (i *Instance) GetProperty(externalID, name string) string {
	if !i.valid {
		return ""
	}

	unlock := i.locks.Lock(externalID)
	exit, out, _, err := i.runner.Run([]string{"guestproperty", "get", externalID, name}, i.execCfg)
	unlock()
	if err != nil || exit != 0 || len(out) == 0 {
		return ""
	}

	if strings.HasPrefix(out[0], "Value: ") {
		return out[0][len("Value: "):]
	}
	return ""
}

// GetAllProperties enumerates every guest property of a machine. Lines
// not matching the expected anchors are skipped, never failing the call.
func (i *Instance) GetAllProperties(externalID string) map[string]string {
	props := make(map[string]string)
	if !i.valid {
		return props
	}

	unlock := i.locks.Lock(externalID)
	exit, out, _, err := i.runner.Run([]string{"guestproperty", "enumerate", externalID}, i.execCfg)
	unlock()
	if err != nil || exit != 0 {
		return props
	}

	for _, line := range out {
		if key, value, ok := parseGuestProperty(line); ok {
			props[key] = value
		}
	}
	return props
}

// HasExtPack reports whether the extension pack is installed.
func (i *Instance) HasExtPack() bool {
	unlock := i.locks.Lock(LockGeneric)
	_, out, _, _ := i.runner.Run([]string{"list", "extpacks"}, i.execCfg)
	unlock()

	for _, line := range out {
		if strings.Contains(line, extPackName) {
			return true
		}
	}
	return false
}

// DiskList enumerates the media registered with the hypervisor, one
// key/value map per medium.
func (i *Instance) DiskList() ([]map[string]string, error) {
	if !i.valid {
		return nil, ErrInvalidAdapter
	}

	unlock := i.locks.Lock(LockGeneric)
	exit, out, _, err := i.runner.Run([]string{"list", "hdds"}, i.execCfg)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("list hdds: %w", err)
	}
	if exit != 0 || len(out) == 0 {
		return nil, nil
	}

	return parseKeyValueBlocks(out), nil
}
