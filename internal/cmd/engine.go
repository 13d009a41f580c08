package cmd

import (
	"fmt"
	"log/slog"

	"github.com/vboxkit/vboxkit/internal/config"
	"github.com/vboxkit/vboxkit/internal/extpack"
	"github.com/vboxkit/vboxkit/internal/hypervisor"
	"github.com/vboxkit/vboxkit/internal/session"
)

// engine wires the orchestration components for one command invocation.
type engine struct {
	cfg       *config.Config
	hv        *hypervisor.Instance
	registry  *session.Registry
	installer *extpack.Installer
}

// newEngine loads configuration and composes the adapter, registry and
// installer. The adapter is not yet validated.
func newEngine() (*engine, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := slog.Default()
	runner := hypervisor.NewManageRunner(cfg.VBoxManage)
	hv := hypervisor.NewInstance(runner, hypervisor.ExecConfig{Timeout: cfg.CommandTimeout()}, log)

	store, err := session.NewStoreAt(cfg.SessionsDir)
	if err != nil {
		return nil, err
	}
	registry := session.NewRegistry(hv, store, log)
	hv.SetSessionLoader(registry)

	installer := extpack.NewInstaller(
		hv,
		extpack.NewHTTPSource(cfg.ExtPack.ConfigURL),
		extpack.NewHTTPDownloader(),
		cfg.ExtPack.TmpDir,
		log,
	)
	hv.SetExtPackInstaller(installer)

	return &engine{cfg: cfg, hv: hv, registry: registry, installer: installer}, nil
}

// validate runs the integrity check, failing the command when the
// hypervisor is unusable.
func (e *engine) validate() error {
	if !e.hv.Validate() {
		return fmt.Errorf("%s is not usable: %w", e.cfg.VBoxManage, hypervisor.ErrInvalidAdapter)
	}
	return nil
}

// loadSessions validates and runs a full reconciliation pass.
func (e *engine) loadSessions() error {
	if err := e.validate(); err != nil {
		return err
	}
	if err := e.registry.LoadSessions(nil); err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	return nil
}
