package engine

import (
	"crypto"
	"encoding/hex"
	"os"
	"os/exec"

	"github.com/go-errors/errors"
	"github.com/inconshreveable/go-update"
)

type InstallOptions struct {
	// Silent suppresses installer UI.
	Silent bool
	// Force restarts the application once the installer finished.
	Force bool
	// Sha256 is the hex encoded checksum of the artifact, if known.
	Sha256 string
}

type Installer interface {
	Install(path string, opts *InstallOptions) error
}

// BinaryInstaller replaces an executable with the downloaded artifact.
type BinaryInstaller struct {
	// TargetPath defaults to the running executable.
	TargetPath string
}

var _ Installer = (*BinaryInstaller)(nil)

func (b *BinaryInstaller) Install(path string, opts *InstallOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Errorf("could not open %v: %v", path, err)
	}
	defer f.Close()

	updateOpts := update.Options{
		TargetPath: b.TargetPath,
		Hash:       crypto.SHA256,
	}

	if opts.Sha256 != "" {
		checksum, err := hex.DecodeString(opts.Sha256)
		if err != nil {
			return errors.Errorf("invalid checksum %q: %v", opts.Sha256, err)
		}

		updateOpts.Checksum = checksum
	}

	err = update.Apply(f, updateOpts)
	if err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			return errors.Errorf("could not roll back failed update: %v", rerr)
		}

		return errors.Errorf("could not apply update: %v", err)
	}

	return nil
}

// ExecInstaller launches the artifact as a platform installer and leaves
// it running once the application quits.
type ExecInstaller struct {
	Args []string
	// SilentArgs are appended when a silent installation was requested.
	SilentArgs []string
	// ForceRunArgs are appended when the application should be started
	// again after the installation.
	ForceRunArgs []string
}

var _ Installer = (*ExecInstaller)(nil)

func (x *ExecInstaller) Install(path string, opts *InstallOptions) error {
	if err := os.Chmod(path, 0755); err != nil {
		return errors.Errorf("could not make %v executable: %v", path, err)
	}

	args := append([]string{}, x.Args...)
	if opts.Silent {
		args = append(args, x.SilentArgs...)
	}
	if opts.Force {
		args = append(args, x.ForceRunArgs...)
	}

	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return errors.Errorf("could not start installer %v: %v", path, err)
	}

	if err := cmd.Process.Release(); err != nil {
		return errors.Errorf("could not detach installer: %v", err)
	}

	return nil
}
