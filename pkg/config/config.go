// Package config loads the optional known-devices overlay file that lets a
// user extend the compile-time allowlist without a rebuild.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/golang/glog"

	"github.com/sndlnk/slinkdfu/pkg/devices"
)

const defaultFileName = "known-devices.toml"

// file is the on-disk schema of the overlay.
type file struct {
	Model []modelEntry `toml:"model"`
}

type modelEntry struct {
	Name   string `toml:"name"`
	AppPID string `toml:"app_pid"`
	DFUPID string `toml:"dfu_pid"`
}

// DefaultPath returns the platform-standard location of the overlay file,
// under the user's config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "slinkdfu", defaultFileName)
}

// LoadOverlay reads the overlay file at path. A missing or unreadable file
// is not an error: it yields zero overlay entries, since the overlay is
// strictly a convenience on top of the compile-time allowlist.
func LoadOverlay(path string) []devices.Model {
	raw, err := os.ReadFile(path)
	if err != nil {
		glog.V(1).Infof("config: no overlay at %s: %v", path, err)
		return nil
	}

	var f file
	if _, err := toml.Decode(string(raw), &f); err != nil {
		glog.Warningf("config: malformed overlay %s: %v", path, err)
		return nil
	}

	var out []devices.Model
	for _, m := range f.Model {
		appPID, err := parseOverlayPID(m.AppPID)
		if err != nil {
			glog.Warningf("config: overlay entry %q: %v", m.Name, err)
			continue
		}
		dfuPID, err := parseOverlayPID(m.DFUPID)
		if err != nil {
			glog.Warningf("config: overlay entry %q: %v", m.Name, err)
			continue
		}
		out = append(out, devices.Model{Name: m.Name, AppPID: appPID, DFUPID: dfuPID})
	}
	return out
}

// parseOverlayPID allows either product ID field to be left blank in the
// overlay file, unlike devices.ParsePID which always expects a hex string.
func parseOverlayPID(s string) (uint16, error) {
	if s == "" {
		return 0, nil
	}
	return devices.ParsePID(s)
}
