// Package config loads the scan policy from layered sources: built-in
// defaults, an optional JSON config file, then CHECKFILES_* environment
// variables. Later layers override earlier ones key by key.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jmylchreest/checkfiles/pkg/integrity"
)

// EnvPrefix is the prefix shared by all checkfiles environment variables.
const EnvPrefix = "CHECKFILES_"

// Load builds the scan policy. configPath selects the config file; when
// empty, .checkfiles.json in the working directory is tried and may be
// absent. An explicit configPath that cannot be read is an error.
//
// Environment keys map to policy keys lowercased with "__" as the key
// separator, e.g. CHECKFILES_EXCLUDED_DIRECTORIES=".git,vendor". Comma
// values split into lists.
func Load(configPath string) (integrity.Policy, error) {
	k := koanf.New(".")

	def := integrity.DefaultPolicy()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"extensions":            def.ExtensionsToCheck,
		"excluded_directories":  def.ExcludedDirectories,
		"excluded_paths":        def.ExcludedPaths,
		"root_markers":          def.RootMarkers,
		"executable_extensions": def.ExecutableExtensions,
		"windows_extensions":    def.WindowsExtensions,
		"bom_exemptions":        def.BomExemptions,
		"whitespace_exemptions": def.WhitespaceExemptions,
		"tab_exemptions":        def.TabExemptions,
	}, "."), nil); err != nil {
		return integrity.Policy{}, fmt.Errorf("load defaults: %w", err)
	}

	explicit := configPath != ""
	if configPath == "" {
		configPath = integrity.DefaultConfigFile
	}
	if err := k.Load(file.Provider(configPath), json.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return integrity.Policy{}, fmt.Errorf("load config %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			key = strings.ReplaceAll(key, "__", ".")
			if strings.Contains(value, ",") {
				return key, strings.Split(value, ",")
			}
			return key, value
		},
	}), nil); err != nil {
		return integrity.Policy{}, fmt.Errorf("load environment: %w", err)
	}

	var p integrity.Policy
	if err := k.Unmarshal("", &p); err != nil {
		return integrity.Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	return p, nil
}
