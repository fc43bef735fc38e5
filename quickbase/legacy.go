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
	"bytes"
	"context"
	"encoding/xml"
	"html"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/gravitational/trace"
	validator "github.com/mattermost/xml-roundtrip-validator"

	"github.com/gravitational/qbrest/lib"
	"github.com/gravitational/qbrest/lib/logger"
	"github.com/gravitational/qbrest/lib/params"
)

const (
	headerLegacyAction = "QUICKBASE-ACTION"

	actionGetUserInfo      = "API_GetUserInfo"
	actionGetDBPage        = "API_GetDBPage"
	actionAddReplaceDBPage = "API_AddReplaceDBPage"
)

// legacyBaseURL is https://<realm> unless overridden.
func (c *Client) legacyBaseURL() (string, error) {
	if endpoint := c.conf.LegacyEndpoint; endpoint != "" {
		return strings.TrimSuffix(endpoint, "/"), nil
	}
	u, err := lib.RealmURL(c.conf.Realm)
	if err != nil {
		return "", trace.Wrap(err)
	}
	return u.String(), nil
}

// GetUserXML fetches the current user document from the legacy API, using the
// app token as the ticket.
func (c *Client) GetUserXML(ctx context.Context) (string, error) {
	ctx, log := logger.WithField(ctx, "qb_action", actionGetUserInfo)

	base, err := c.legacyBaseURL()
	if err != nil {
		return "", newError(KindRequest, 0, err, "bad realm %q", c.conf.Realm)
	}
	url := base + "/db/main" + params.Encode(params.New("a", actionGetUserInfo, "ticket", c.conf.AppToken))

	resp, err := c.legacy.R().SetContext(ctx).Get(url)
	if err != nil {
		log.WithError(err).Error("Legacy request failed")
		return "", newError(KindRequest, 0, err, "%s", actionGetUserInfo)
	}
	if !resp.IsSuccess() {
		log.Errorf("HTTP Response Code: %d", resp.StatusCode())
		return "", newError(KindRequest, resp.StatusCode(), nil, "%s", actionGetUserInfo)
	}
	return resp.String(), nil
}

// GetUserInfo fetches and parses the current user document.
func (c *Client) GetUserInfo(ctx context.Context) (*UserInfo, error) {
	data, err := c.GetUserXML(ctx)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	info, err := ParseUserInfo([]byte(data))
	if err != nil {
		logger.Get(ctx).WithError(err).Error("Failed to parse user info")
		return nil, trace.Wrap(err)
	}
	return info, nil
}

// ParseUserInfo maps an API_GetUserInfo document onto UserInfo. A document
// without a user element is a parse failure.
func ParseUserInfo(data []byte) (*UserInfo, error) {
	var result userInfoResult
	if err := decodeLegacyXML(data, &result); err != nil {
		return nil, trace.Wrap(err)
	}
	if result.ErrCode != 0 {
		return nil, trace.Wrap(&Error{Kind: KindAPI, Code: result.ErrCode, Message: result.ErrText})
	}
	if result.User == nil {
		return nil, newError(KindParse, 0, nil, "no user element in %s response", actionGetUserInfo)
	}
	user := result.User
	return &UserInfo{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Login:        user.Login,
		Email:        user.Email,
		ScreenName:   user.ScreenName,
		IsVerified:   user.IsVerified,
		ExternalAuth: user.ExternalAuth,
	}, nil
}

func decodeLegacyXML(data []byte, v interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return newError(KindParse, 0, nil, "empty XML document")
	}
	if err := validator.Validate(bytes.NewReader(data)); err != nil {
		return newError(KindParse, 0, err, "XML document does not round-trip")
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return newError(KindParse, 0, err, "malformed XML document")
	}
	return nil
}

type cdata struct {
	Text string `xml:",cdata"`
}

type legacyRequest struct {
	XMLName   xml.Name `xml:"qdbapi"`
	PageID    int      `xml:"pageid,omitempty"`
	PageName  string   `xml:"pagename,omitempty"`
	PageType  PageType `xml:"pagetype,omitempty"`
	UserToken string   `xml:"usertoken"`
	PageBody  *cdata   `xml:"pagebody,omitempty"`
}

// GetDBPage downloads a code page of the application.
func (c *Client) GetDBPage(ctx context.Context, appDBID string, pageID int) (string, error) {
	var result pageResult
	err := c.callPageAction(ctx, appDBID, actionGetDBPage, legacyRequest{PageID: pageID}, &result)
	if err != nil {
		return "", trace.Wrap(err)
	}
	if result.PageBody == nil {
		return "", nil
	}
	return cleanPageBody(*result.PageBody), nil
}

// AddReplaceDBPage replaces the page when page.ID is set, creates a new one
// otherwise. It returns the page id.
func (c *Client) AddReplaceDBPage(ctx context.Context, appDBID string, page DBPage) (int, error) {
	req := legacyRequest{PageBody: &cdata{Text: page.Body}}
	if page.ID != 0 {
		req.PageID = page.ID
	} else {
		if page.Name == "" {
			return 0, trace.BadParameter("a new page requires a name")
		}
		req.PageName = page.Name
		req.PageType = page.Type
		if req.PageType == 0 {
			req.PageType = PageTypeXSL
		}
	}

	var result pageResult
	if err := c.callPageAction(ctx, appDBID, actionAddReplaceDBPage, req, &result); err != nil {
		return 0, trace.Wrap(err)
	}
	if result.PageID != 0 {
		return result.PageID, nil
	}
	return page.ID, nil
}

func (c *Client) callPageAction(ctx context.Context, appDBID, action string, req legacyRequest, result *pageResult) error {
	ctx, log := logger.WithFields(ctx, logger.Fields{"qb_action": action, "app_dbid": appDBID})

	if c.conf.UserToken == "" {
		return trace.BadParameter("%s requires a user token", action)
	}
	req.UserToken = c.conf.UserToken

	base, err := c.legacyBaseURL()
	if err != nil {
		return newError(KindRequest, 0, err, "bad realm %q", c.conf.Realm)
	}
	body, err := xml.Marshal(req)
	if err != nil {
		return trace.Wrap(err)
	}

	resp, err := c.legacy.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/xml").
		SetHeader(headerLegacyAction, action).
		SetBody(append([]byte(xml.Header), body...)).
		Post(base + "/" + lib.BuildURLPath("db", appDBID))
	if err != nil {
		log.WithError(err).Error("Legacy request failed")
		return newError(KindRequest, 0, err, "%s", action)
	}
	if !resp.IsSuccess() {
		log.Errorf("HTTP Response Code: %d", resp.StatusCode())
		return newError(KindRequest, resp.StatusCode(), nil, "%s", action)
	}
	return trace.Wrap(decodePageResult(resp, result))
}

func decodePageResult(resp *resty.Response, result *pageResult) error {
	if err := decodeLegacyXML(resp.Body(), result); err != nil {
		return trace.Wrap(err)
	}
	if result.ErrCode != 0 {
		return trace.Wrap(&Error{
			Kind:       KindAPI,
			StatusCode: resp.StatusCode(),
			Code:       result.ErrCode,
			Message:    result.ErrText,
		})
	}
	return nil
}

var pageBreaks = strings.NewReplacer("<BR/>", "\n", "<br/>", "\n", "<BR />", "\n", "<br />", "\n")

// cleanPageBody turns the pagebody text back into the page source. The legacy
// API returns line breaks as escaped <BR/> tags.
func cleanPageBody(text string) string {
	return strings.TrimSpace(html.UnescapeString(pageBreaks.Replace(text)))
}
