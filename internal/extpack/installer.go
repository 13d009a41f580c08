// Package extpack installs the hypervisor extension pack: fetch the
// trusted per-version configuration, download the artifact, verify its
// checksum and hand it to the CLI installer.
package extpack

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/vboxkit/vboxkit/internal/hypervisor"
	"github.com/vboxkit/vboxkit/internal/progress"
)

// Hypervisor is the slice of the adapter the installer drives.
// Implemented by hypervisor.Instance.
type Hypervisor interface {
	Exec(args []string, cfg hypervisor.ExecConfig) (exit int, stdout, stderr []string, err error)
	ExecConfig() hypervisor.ExecConfig
	Lock(name string) func()
	Version() hypervisor.Version
	HasExtPack() bool
}

// ConfigSource fetches the trusted key/value configuration naming the
// per-version download URL and expected checksum. Integrity failures of
// the source itself surface as ErrNotValidated or ErrNotTrusted.
type ConfigSource interface {
	FetchConfig() (map[string]string, error)
}

// DownloadProvider transfers one artifact to a local path, reporting
// incremental progress through the task.
type DownloadProvider interface {
	Download(url, dest string, pf progress.Task) error
}

// Installer runs the extension pack installation pipeline.
type Installer struct {
	hv       Hypervisor
	source   ConfigSource
	provider DownloadProvider
	tmpDir   string
	log      *slog.Logger
}

// NewInstaller returns an installer using tmpDir for downloaded
// artifacts. An empty tmpDir falls back to the system temp directory; a
// nil logger uses slog.Default().
func NewInstaller(hv Hypervisor, source ConfigSource, provider DownloadProvider, tmpDir string, log *slog.Logger) *Installer {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Installer{hv: hv, source: source, provider: provider, tmpDir: tmpDir, log: log}
}

// Install runs the pipeline: short-circuit when already installed, fetch
// the trusted configuration, download the artifact, verify its sha256
// checksum and invoke the CLI installer interactively under the generic
// lock. Every step reports start/success/failure through pf; the first
// failure halts the pipeline.
//
// The downloaded artifact is removed only on the full success path. A
// checksum mismatch deliberately leaves it on disk for inspection.
func (in *Installer) Install(pf progress.Task) error {
	if pf == nil {
		pf = progress.Discard
	}

	pf.SetMax(5)
	pf.Doing("Preparing for extension pack installation")

	if in.hv.HasExtPack() {
		pf.Complete("Already installed")
		return hypervisor.ErrAlreadyExists
	}

	pf.Begin("Downloading hypervisor configuration")
	data, err := in.source.FetchConfig()
	if err != nil {
		if errors.Is(err, hypervisor.ErrNotValidated) || errors.Is(err, hypervisor.ErrNotTrusted) {
			pf.Fail("Hypervisor configuration integrity check failed", err)
			return err
		}
		err = fmt.Errorf("fetching hypervisor configuration: %w: %w", hypervisor.ErrExternal, err)
		pf.Fail("Unable to fetch hypervisor configuration", err)
		return err
	}

	// Per-version lookup keys, e.g. "vbox-4.3.12-extpack".
	verString := "vbox-" + in.hv.Version().String()
	urlKey := verString + "-extpack"
	checksumKey := verString + "-extpackChecksum"

	url, ok := data[urlKey]
	if !ok {
		err := fmt.Errorf("no extension pack URL for %s: %w", verString, hypervisor.ErrExternal)
		pf.Fail("No extension pack URL found", err)
		return err
	}
	expected, ok := data[checksumKey]
	if !ok {
		err := fmt.Errorf("no extension pack checksum for %s: %w", verString, hypervisor.ErrExternal)
		pf.Fail("No extension pack checksum found", err)
		return err
	}

	downloadPf := pf.Begin("Downloading extension pack")
	tmpFile := filepath.Join(in.tmpDir, path.Base(url))
	in.log.Info("downloading extension pack", "url", url, "dest", tmpFile)
	if err := in.provider.Download(url, tmpFile, downloadPf); err != nil {
		err = fmt.Errorf("downloading extension pack: %w", err)
		pf.Fail("Unable to download extension pack", err)
		return err
	}

	pf.Doing("Validating extension pack integrity")
	checksum, err := sha256File(tmpFile)
	if err != nil {
		pf.Fail("Unable to checksum extension pack", err)
		return err
	}
	if checksum != expected {
		err := fmt.Errorf("checksum %s does not match expected %s: %w", checksum, expected, hypervisor.ErrNotValidated)
		pf.Fail("Extension pack integrity was not validated", err)
		return err
	}
	pf.Done("Extension pack integrity validated")

	pf.Doing("Installing extension pack")
	pf.MarkLengthy(true)
	unlock := in.hv.Lock(hypervisor.LockGeneric)
	exit, _, _, execErr := in.hv.Exec([]string{"extpack", "install", tmpFile}, in.hv.ExecConfig().WithGUI(true))
	unlock()
	if execErr != nil || exit != 0 {
		pf.MarkLengthy(false)
		err := fmt.Errorf("extension pack installer exited %d: %w", exit, hypervisor.ErrExternal)
		if execErr != nil {
			err = fmt.Errorf("extension pack installer: %w: %w", hypervisor.ErrExternal, execErr)
		}
		pf.Fail("Extension pack failed to install", err)
		return err
	}
	pf.MarkLengthy(false)
	pf.Done("Installed extension pack")

	pf.Doing("Cleaning up")
	if err := os.Remove(tmpFile); err != nil {
		in.log.Warn("failed to remove downloaded extension pack", "path", tmpFile, "error", err)
	}
	pf.Done("Cleaned up")

	pf.Complete("Extension pack installed successfully")
	return nil
}

// sha256File computes the hex sha256 digest of a file.
func sha256File(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", p, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
