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

package auth

import (
	"context"
	"time"
)

// DefaultValidity is how long a temporary token may be used after it was issued.
const DefaultValidity = 4 * time.Minute

// Token is a table-scoped temporary authorization.
type Token struct {
	TableID  string
	Value    string
	IssuedAt time.Time
}

// ExpiresAt returns the moment the token stops being usable.
func (t Token) ExpiresAt(validity time.Duration) time.Time {
	return t.IssuedAt.Add(validity)
}

// Fetcher obtains a fresh temporary token for a table.
type Fetcher interface {
	FetchTemporaryToken(ctx context.Context, tableID string) (string, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, tableID string) (string, error)

// FetchTemporaryToken implements Fetcher
func (f FetcherFunc) FetchTemporaryToken(ctx context.Context, tableID string) (string, error) {
	return f(ctx, tableID)
}
