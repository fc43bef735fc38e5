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
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/gravitational/trace"

	"github.com/gravitational/qbrest/lib"
	"github.com/gravitational/qbrest/lib/logger"
)

const (
	// appName is the binary name
	appName = "qbrest"

	// appDescription is shown in the usage
	appDescription = "Runs reports, queries and upserts against Quickbase and syncs code pages"

	// defaultConfigPath is read when --config is not given
	defaultConfigPath = "qbrest.toml"
)

var (
	// Version is set at build time
	Version = "0.0.1"
	// Gitref is set at build time
	Gitref = ""
)

func newParser(ctx context.Context, cli *CLI) (*kong.Kong, error) {
	return kong.New(
		cli,
		kong.UsageOnError(),
		kong.Configuration(KongTOMLResolver, defaultConfigPath),
		kong.Name(appName),
		kong.Description(appDescription),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
}

func main() {
	logger.Init()

	ctx, cancel := lib.WithSignals(context.Background())
	defer cancel()

	var cli CLI
	parser, err := newParser(ctx, &cli)
	if err != nil {
		lib.Bail(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	// See respective commands Run() methods
	err = kctx.Run()
	if err == nil {
		return
	}
	if cli.Debug {
		fmt.Fprintf(os.Stderr, "%v\n", trace.DebugReport(err))
	}
	lib.Bail(err)
}
