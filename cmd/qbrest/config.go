package main

import (
	"path/filepath"
	"strings"

	"github.com/gravitational/trace"
	"github.com/pelletier/go-toml"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/gravitational/qbrest/lib"
	"github.com/gravitational/qbrest/lib/logger"
)

// defaultStorageDir holds per-environment page registries unless storage is set.
const defaultStorageDir = ".qbrest"

// Config is the contents of qbrest.toml
type Config struct {
	Log                logger.Config
	CurrentEnvironment string
	Environments       map[string]*Environment
}

// Environment is one [environments.<name>] section.
type Environment struct {
	Name      string
	Quickbase lib.QuickbaseConfig
	// Storage is the directory of the page registry.
	Storage string
}

// LoadConfig reads a qbrest.toml file.
func LoadConfig(path string) (*Config, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, trace.Wrap(err, "failed to load configuration file %q", path)
	}
	conf, err := configFromTree(tree)
	return conf, trace.Wrap(err)
}

func configFromTree(tree *toml.Tree) (*Config, error) {
	conf := &Config{Environments: make(map[string]*Environment)}

	if logTree, ok := tree.Get("log").(*toml.Tree); ok {
		if err := logTree.Unmarshal(&conf.Log); err != nil {
			return nil, trace.Wrap(err, "bad [log] section")
		}
	}
	if current, ok := tree.Get("current_environment").(string); ok {
		conf.CurrentEnvironment = current
	}

	envs, ok := tree.Get("environments").(*toml.Tree)
	if !ok {
		return nil, trace.BadParameter("no [environments] section in configuration")
	}
	for _, name := range envs.Keys() {
		envTree, ok := envs.GetPath([]string{name}).(*toml.Tree)
		if !ok {
			return nil, trace.BadParameter("environments.%s is not a section", name)
		}
		env := &Environment{Name: name}
		if err := envTree.Unmarshal(&env.Quickbase); err != nil {
			return nil, trace.Wrap(err, "bad [environments.%s] section", name)
		}
		if storage, ok := envTree.Get("storage").(string); ok {
			env.Storage = storage
		}
		conf.Environments[name] = env
	}
	return conf, nil
}

// EnvironmentNames returns the configured environment names, sorted.
func (c *Config) EnvironmentNames() []string {
	names := maps.Keys(c.Environments)
	slices.Sort(names)
	return names
}

// Environment selects and validates an environment. An empty name means the
// current environment, or the only one when a single environment is configured.
func (c *Config) Environment(name string) (*Environment, error) {
	if name == "" {
		name = c.CurrentEnvironment
	}
	if name == "" && len(c.Environments) == 1 {
		name = c.EnvironmentNames()[0]
	}
	if name == "" {
		return nil, trace.BadParameter("no environment selected, use --env or set current_environment (available: %s)",
			strings.Join(c.EnvironmentNames(), ", "))
	}

	env, ok := c.Environments[name]
	if !ok {
		return nil, trace.NotFound("unknown environment %q (available: %s)", name, strings.Join(c.EnvironmentNames(), ", "))
	}
	if err := env.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err, "environment %q", name)
	}
	return env, nil
}

// CheckAndSetDefaults validates the Quickbase settings and defaults the storage dir.
func (e *Environment) CheckAndSetDefaults() error {
	if err := e.Quickbase.CheckAndSetDefaults(); err != nil {
		return trace.Wrap(err)
	}
	if e.Storage == "" {
		e.Storage = filepath.Join(defaultStorageDir, e.Name)
	}
	return nil
}
