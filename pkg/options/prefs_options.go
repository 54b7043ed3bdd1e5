package options

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

var _ IOptions = (*PrefsOptions)(nil)

// PrefsOptions locates the persisted dashboard preferences.
type PrefsOptions struct {
	// Path of the YAML file. Empty keeps preferences in memory only.
	Path string `json:"path" mapstructure:"path"`

	// Watch reloads the file when it changes on disk.
	Watch bool `json:"watch" mapstructure:"watch"`
}

func NewPrefsOptions() *PrefsOptions {
	return &PrefsOptions{
		Path:  filepath.Join(".evfleet", "preferences.yaml"),
		Watch: true,
	}
}

func (o *PrefsOptions) Validate() []error {
	if o == nil || o.Path == "" {
		return nil
	}

	switch strings.ToLower(filepath.Ext(o.Path)) {
	case ".yaml", ".yml":
		return nil
	default:
		return []error{fmt.Errorf("--prefs.path must end in .yaml or .yml, got %q", o.Path)}
	}
}

func (o *PrefsOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Path, "prefs.path", o.Path, "YAML file holding the panel order and language. Empty keeps them in memory.")
	fs.BoolVar(&o.Watch, "prefs.watch", o.Watch, "Reload preferences when the file changes on disk.")
}
