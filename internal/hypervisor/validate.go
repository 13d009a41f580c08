package hypervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/vboxkit/vboxkit/internal/progress"
	"github.com/vboxkit/vboxkit/internal/ui"
)

// driverWarning is the one recoverable warning in the version query: the
// host kernel module is missing, which the readiness workflow can repair.
const driverWarning = "vboxdrv kernel module is not loaded"

const (
	licenseTitle = "VirtualBox Personal Use and Evaluation License (PUEL)"
	licenseText  = "The VirtualBox Extension Pack is distributed by Oracle under the\n" +
		"Personal Use and Evaluation License. By accepting you agree to its\n" +
		"terms: https://www.virtualbox.org/wiki/VirtualBox_PUEL"
)

// Validate confirms the hypervisor tool is reachable and healthy. It runs
// the version query, scanning every line for WARNING and ERROR tokens:
// ERROR is always fatal, WARNING is fatal unless it is the recoverable
// missing-driver condition, and any stderr output is fatal. On success it
// extracts the version from the last output line and locates the guest
// additions image through the system properties. The resulting validity
// flag gates every other operation.
func (i *Instance) Validate() bool {
	i.valid = false

	_, out, errOut, err := i.runner.Run([]string{"--version"}, i.execCfg)
	if err != nil {
		i.log.Warn("hypervisor tool unreachable", "error", err)
		return false
	}

	i.driverLoaded = true
	for _, line := range out {
		if strings.Contains(line, "WARNING") {
			i.log.Warn("warning token in hypervisor version output", "line", line)
			if strings.Contains(line, driverWarning) {
				i.driverLoaded = false
				continue
			}
			return false
		}
		if strings.Contains(line, "ERROR") {
			i.log.Warn("error token in hypervisor version output", "line", line)
			return false
		}
	}
	if len(errOut) > 0 {
		i.log.Warn("hypervisor version query wrote to stderr")
		return false
	}

	if len(out) > 0 {
		i.version = ParseVersion(out[len(out)-1])
	}

	i.guestAdditions = ""
	if exit, propOut, _, err := i.runner.Run([]string{"list", "systemproperties"}, i.execCfg); err == nil && exit == 0 {
		props := parseKeyValueLines(propOut)
		if iso, ok := props["Default Guest Additions ISO"]; ok {
			i.guestAdditions = iso
		}
	}

	i.valid = true
	return true
}

// EnsureReady drives the repair and lazy-initialization sequence that
// must complete before sessions are handed out:
//
//  1. repair the missing kernel driver, with user confirmation, and
//     re-validate;
//  2. trigger the one-time registry load;
//  3. install the extension pack after license acceptance;
//  4. report overall completion.
//
// A failure at any phase halts the rest and surfaces the specific reason
// through both the progress task and the returned error. Confirmation
// prompts block until answered.
func (i *Instance) EnsureReady(pf progress.Task, interaction ui.Interaction) error {
	if pf == nil {
		pf = progress.Discard
	}

	pf.SetMax(3)

	// [1] Driver repair.
	if !i.driverLoaded {
		if interaction == nil {
			err := fmt.Errorf("driver repair needs an interactive channel: %w", ErrUserDenied)
			pf.Fail(driverWarning, err)
			return err
		}
		if interaction.Confirm(
			"VirtualBox kernel driver problem",
			"VirtualBox did not manage to load its kernel driver. Try to fix this now? (root privileges required)",
		) != ui.Accepted {
			interaction.Alert(
				"VirtualBox kernel driver problem",
				"Run the following command and try again:\n\n  sudo /sbin/vboxconfig",
			)
			err := fmt.Errorf("driver repair refused: %w", ErrUserDenied)
			pf.Fail(driverWarning, err)
			return err
		}

		if err := i.repairDriver(); err != nil {
			interaction.Alert(
				"Could not fix the problem",
				"The kernel driver could not be installed. Make sure your kernel headers are installed and try again.",
			)
			pf.Fail("Driver installation failed", err)
			return err
		}

		if !i.Validate() || !i.driverLoaded {
			interaction.Alert(
				"Could not fix the problem",
				"The kernel driver is still not loaded. Try reinstalling VirtualBox manually.",
			)
			err := fmt.Errorf("post-repair validation failed: %w", ErrInvalidAdapter)
			pf.Fail("Could not validate hypervisor after driver install", err)
			return err
		}
	}
	pf.Done("Hypervisor driver in place")

	// [2] One-time registry load.
	if i.loader == nil || i.loader.Loaded() {
		pf.Done("Sessions are loaded")
	} else if err := i.loader.LoadSessions(pf.Begin("Loading sessions")); err != nil {
		pf.Fail("Failed to load sessions", err)
		return err
	}

	// [3] Extension pack.
	if i.HasExtPack() {
		pf.Done("Extension pack is installed")
	} else {
		if interaction == nil {
			err := fmt.Errorf("license acceptance needs an interactive channel: %w", ErrUserDenied)
			pf.Fail("Extension pack license not confirmed", err)
			return err
		}
		if interaction.ConfirmLicense(licenseTitle, licenseText) != ui.Accepted {
			err := fmt.Errorf("extension pack license denied: %w", ErrUserDenied)
			pf.Fail("User denied extension pack license", err)
			return err
		}
		if i.installer != nil {
			if err := i.installer.Install(pf.Begin("Installing extension pack")); err != nil && !errors.Is(err, ErrAlreadyExists) {
				pf.Fail("Extension pack installation failed", err)
				return err
			}
		}
	}

	// [4] Done.
	pf.Complete("Hypervisor is ready")
	return nil
}

// repairDriver runs the privileged driver rebuild with the user's
// terminal attached, so sudo can prompt.
func (i *Instance) repairDriver() error {
	if len(i.repairCommand) == 0 {
		return fmt.Errorf("no repair command configured: %w", ErrExternal)
	}

	cmd := exec.Command(i.repairCommand[0], i.repairCommand[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("driver repair command failed: %w", err)
	}
	return nil
}
