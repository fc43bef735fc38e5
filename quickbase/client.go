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
	"context"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/gravitational/qbrest/lib"
	"github.com/gravitational/qbrest/lib/logger"
	"github.com/gravitational/qbrest/lib/params"
	"github.com/gravitational/qbrest/quickbase/auth"
)

const (
	headerRealm    = "QB-Realm-Hostname"
	headerAppToken = "QB-App-Token"
	tokenScheme    = "QB-TEMP-TOKEN"
)

// Request describes a single authenticated REST call.
type Request struct {
	Method string
	// Path is relative to the API base, e.g. "records/query".
	Path string
	// TableID selects the temporary token used for the call.
	TableID string
	// Body is serialized as JSON. A nil Body sends no payload at all.
	Body interface{}
	// Params are appended to the URL in order.
	Params params.Params
}

// Client is a Quickbase API client. It owns a temporary token cache, so a
// Client must be closed when it is no longer needed.
type Client struct {
	conf   Config
	api    *resty.Client
	legacy *resty.Client
	tokens *auth.TokenCache
	log    logrus.FieldLogger
}

// New creates a Client. Realm and app token are used verbatim.
func New(conf Config) (*Client, error) {
	log := conf.Log
	if log == nil {
		log = logger.Standard()
	}
	apiURL := conf.APIEndpoint
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	client := &Client{
		conf:   conf,
		api:    makeRestyClient(log).SetBaseURL(strings.TrimSuffix(apiURL, "/")),
		legacy: makeRestyClient(log),
		log:    log,
	}

	tokens, err := auth.NewTokenCache(auth.TokenCacheConfig{
		Fetcher:  client,
		Clock:    conf.Clock,
		Validity: conf.TokenValidity,
		Log:      log,
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	client.tokens = tokens
	return client, nil
}

func makeRestyClient(log logrus.FieldLogger) *resty.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = qbMaxConns
	transport.MaxIdleConnsPerHost = qbMaxConns

	client := resty.NewWithClient(&http.Client{Transport: transport})
	client.JSONMarshal = lib.FastMarshal
	client.JSONUnmarshal = lib.FastUnmarshal
	client.SetLogger(log)
	return client
}

// Realm returns the realm hostname the client was created with.
func (c *Client) Realm() string {
	return c.conf.Realm
}

// Send performs an authenticated call to the REST API and returns its JSON body.
// The call is not attempted when no temporary token can be obtained for req.TableID.
// A 401 reply drops the cached token of the table.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	ctx, log := logger.WithFields(ctx, logger.Fields{
		"qb_call_id": uuid.NewString(),
		"qb_method":  req.Method,
		"qb_path":    req.Path,
		"table_id":   req.TableID,
	})

	token, err := c.tokens.Get(ctx, req.TableID)
	if err != nil {
		log.WithError(err).Error("Could not obtain a temporary token, request not sent")
		return nil, trace.Wrap(err)
	}

	r := c.api.R().
		SetContext(ctx).
		SetHeader(headerRealm, c.conf.Realm).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", tokenScheme+" "+token)
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path+params.Encode(req.Params))
	if err != nil {
		switch {
		case lib.IsCanceled(err):
			log.Debug("Quickbase request canceled")
		case lib.IsDeadline(err):
			log.WithError(err).Error("Quickbase request timed out")
		default:
			log.WithError(err).Error("Quickbase request failed")
		}
		return nil, newError(KindRequest, 0, err, "%s %s", req.Method, req.Path)
	}
	if !resp.IsSuccess() {
		log.Errorf("HTTP Response Code: %d", resp.StatusCode())
		if resp.StatusCode() == http.StatusUnauthorized {
			// The next call for this table fetches a fresh token.
			c.tokens.Invalidate(req.TableID)
		}
		return nil, newError(KindRequest, resp.StatusCode(), nil, "%s", apiErrorMessage(resp.Body()))
	}

	result, err := newResponse(resp.StatusCode(), resp.Body())
	if err != nil {
		log.WithError(err).Error("Quickbase returned a malformed body")
		return nil, trace.Wrap(err)
	}
	log.Debugf("HTTP Response Code: %d", resp.StatusCode())
	return result, nil
}

// FetchTemporaryToken implements auth.Fetcher
func (c *Client) FetchTemporaryToken(ctx context.Context, tableID string) (string, error) {
	log := logger.Get(ctx).WithField("table_id", tableID)

	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerRealm, c.conf.Realm).
		SetHeader(headerAppToken, c.conf.AppToken).
		Get(lib.BuildURLPath("auth", "temporary", tableID))
	if err != nil {
		log.WithError(err).Error("Temporary token request failed")
		return "", newError(KindAuth, 0, err, "table %s", tableID)
	}
	if !resp.IsSuccess() {
		log.Errorf("HTTP Response Code: %d", resp.StatusCode())
		return "", newError(KindAuth, resp.StatusCode(), nil, "%s", apiErrorMessage(resp.Body()))
	}

	var result TemporaryAuthorization
	if err := lib.FastUnmarshal(resp.Body(), &result); err != nil {
		return "", newError(KindAuth, resp.StatusCode(), err, "malformed temporary token response")
	}
	if result.Token == "" {
		return "", newError(KindAuth, resp.StatusCode(), nil, "empty temporary token for table %s", tableID)
	}
	return result.Token, nil
}

// Warm starts fetching a temporary token for the table in the background.
// Callers may ignore the returned promise.
func (c *Client) Warm(tableID string) *lib.Promise[string] {
	return c.tokens.Warm(tableID)
}

// Close drops every cached token and cancels their pending evictions.
func (c *Client) Close() {
	c.tokens.Close()
}

// apiErrorMessage extracts "message: description" from a REST error body.
func apiErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	fields := gjson.GetManyBytes(body, "message", "description")
	var parts []string
	for _, field := range fields {
		if field.Exists() && field.String() != "" {
			parts = append(parts, field.String())
		}
	}
	return strings.Join(parts, ": ")
}
