package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by the option bundle of a command.
// Flag names double as config file keys: --http.addr reads http.addr.
type NamedFlagSetOptions interface {
	// Flags returns the flag sets, grouped for help output.
	Flags() cliflag.NamedFlagSets

	// Complete fills in defaults that depend on other fields.
	Complete() error

	// Validate returns every configuration error, aggregated.
	Validate() error
}
