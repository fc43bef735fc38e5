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
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gravitational/trace"
	"github.com/peterbourgon/diskv/v3"
	"golang.org/x/exp/slices"
)

const (
	// cacheSizeMaxBytes max memory cache
	cacheSizeMaxBytes = 1024

	// pagePrefix is the page id key prefix
	pagePrefix = "page_"
)

// PageRegistry remembers which code page a local file is uploaded to
type PageRegistry struct {
	// dv is a diskv instance
	dv *diskv.Diskv
}

// NewPageRegistry opens the registry stored in dir
func NewPageRegistry(dir string) *PageRegistry {
	// Simplest transform function: put all the data files into the base dir.
	flatTransform := func(s string) []string { return []string{} }

	dv := diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    flatTransform,
		CacheSizeMax: cacheSizeMaxBytes,
	})

	return &PageRegistry{dv}
}

// pageKey turns a file name into a flat key
func pageKey(filename string) string {
	return pagePrefix + url.PathEscape(filepath.ToSlash(filepath.Clean(filename)))
}

// Get returns the page id recorded for the file
func (r *PageRegistry) Get(filename string) (int, bool, error) {
	key := pageKey(filename)
	if !r.dv.Has(key) {
		return 0, false, nil
	}

	b, err := r.dv.Read(key)
	if err != nil {
		return 0, false, trace.Wrap(err)
	}

	id, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, false, trace.Wrap(err, "corrupted registry entry for %q", filename)
	}

	return id, true, nil
}

// Set records the page id of the file
func (r *PageRegistry) Set(filename string, id int) error {
	if id <= 0 {
		return trace.BadParameter("invalid page id %d", id)
	}
	return trace.Wrap(r.dv.Write(pageKey(filename), []byte(strconv.Itoa(id))))
}

// Forget removes the file from the registry
func (r *PageRegistry) Forget(filename string) error {
	key := pageKey(filename)
	if !r.dv.Has(key) {
		return trace.NotFound("%q is not registered", filename)
	}
	return trace.Wrap(r.dv.Erase(key))
}

// List returns every registered file with its page id
func (r *PageRegistry) List(ctx context.Context) (map[string]int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(map[string]int)
	for key := range r.dv.KeysPrefix(pagePrefix, ctx.Done()) {
		filename, err := url.PathUnescape(strings.TrimPrefix(key, pagePrefix))
		if err != nil {
			return nil, trace.Wrap(err)
		}
		id, ok, err := r.Get(filename)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		if ok {
			result[filename] = id
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, trace.Wrap(err)
	}
	return result, nil
}

// FileFor returns the file registered for the page id. When several files
// share the page, the first one in lexical order wins.
func (r *PageRegistry) FileFor(ctx context.Context, id int) (string, bool, error) {
	pages, err := r.List(ctx)
	if err != nil {
		return "", false, trace.Wrap(err)
	}

	var files []string
	for file, pageID := range pages {
		if pageID == id {
			files = append(files, file)
		}
	}
	if len(files) == 0 {
		return "", false, nil
	}
	slices.Sort(files)
	return files[0], true, nil
}
