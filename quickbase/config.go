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

package quickbase

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/gravitational/qbrest/lib"
)

const (
	// DefaultAPIURL is the base of the JSON REST API.
	DefaultAPIURL = "https://api.quickbase.com/v1"

	qbMaxConns = 100
)

// Config is the credential context of a Client. It is never modified after New.
type Config struct {
	// Realm is the hostname of the customer realm, e.g. "acme.quickbase.com".
	Realm string
	// AppToken is the application secret used to obtain temporary tokens and,
	// on the legacy API, as a ticket.
	AppToken string
	// UserToken authenticates legacy page operations.
	UserToken string

	// APIEndpoint overrides DefaultAPIURL. It is set only in tests.
	APIEndpoint string
	// LegacyEndpoint overrides the https://<realm> legacy base. It is set only in tests.
	LegacyEndpoint string

	// TokenValidity overrides the temporary token lifetime.
	TokenValidity time.Duration
	// Clock drives the token cache.
	Clock clockwork.Clock
	// Log is the client logger.
	Log logrus.FieldLogger
}

// ConfigFromFile maps the file-level Quickbase section onto a client Config.
func ConfigFromFile(conf lib.QuickbaseConfig) Config {
	return Config{
		Realm:          conf.Realm,
		AppToken:       conf.AppToken,
		UserToken:      conf.UserToken,
		APIEndpoint:    conf.APIEndpoint,
		LegacyEndpoint: conf.LegacyEndpoint,
	}
}
