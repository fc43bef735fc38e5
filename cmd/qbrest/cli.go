/*
Copyright 2023 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"

	"github.com/gravitational/qbrest/lib/logger"
	"github.com/gravitational/qbrest/quickbase"
)

// CLI represents command structure
type CLI struct {
	// Config is the path to configuration file
	Config kong.ConfigFlag `help:"Path to TOML configuration file (default qbrest.toml)" optional:"true" type:"existingfile" env:"QBREST_CONFIG"`

	// Env is the environment section to use
	Env string `help:"Environment to use, overrides current_environment" env:"QBREST_ENV"`

	// Debug is a debug logging mode flag
	Debug bool `help:"Debug logging" short:"d"`

	// Version is the version print command
	Version VersionCmd `cmd:"true" help:"Print version"`

	// Whoami is the user info command
	Whoami WhoamiCmd `cmd:"true" help:"Show the user the app token belongs to"`

	// Report is the saved report command
	Report ReportCmd `cmd:"true" help:"Run a saved report"`

	// Query is the records query command
	Query QueryCmd `cmd:"true" help:"Query table records"`

	// Upsert is the records upsert command
	Upsert UpsertCmd `cmd:"true" help:"Insert or update table records"`

	// Warm is the token prefetch command
	Warm WarmCmd `cmd:"true" help:"Fetch temporary tokens for tables"`

	// Page is the code page command group
	Page PageCmd `cmd:"true" help:"Download and upload code pages"`

	stdout io.Writer
	stdin  io.Reader
}

// session is a loaded environment with a client for it
type session struct {
	env    *Environment
	client *quickbase.Client
}

// Close releases the client
func (s *session) Close() {
	s.client.Close()
}

func (c *CLI) configPath() string {
	if c.Config != "" {
		return string(c.Config)
	}
	return defaultConfigPath
}

func (c *CLI) out() io.Writer {
	if c.stdout != nil {
		return c.stdout
	}
	return os.Stdout
}

func (c *CLI) in() io.Reader {
	if c.stdin != nil {
		return c.stdin
	}
	return os.Stdin
}

// open loads the configuration, sets up logging and connects to the selected environment
func (c *CLI) open() (*session, error) {
	conf, err := LoadConfig(c.configPath())
	if err != nil {
		return nil, trace.Wrap(err)
	}

	if err := logger.Setup(conf.Log); err != nil {
		return nil, trace.Wrap(err)
	}
	if c.Debug {
		log.SetLevel(log.DebugLevel)
	}

	env, err := conf.Environment(c.Env)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	qbConf := quickbase.ConfigFromFile(env.Quickbase)
	qbConf.Log = logger.Standard().WithField("env", env.Name)
	client, err := quickbase.New(qbConf)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	log.WithFields(log.Fields{"env": env.Name, "realm": client.Realm()}).Debug("Using environment")

	return &session{env: env, client: client}, nil
}
