package quickbase

import "encoding/xml"

// REST API resources

// TemporaryAuthorization is the body returned by auth/temporary/{tableID}.
type TemporaryAuthorization struct {
	Token string `json:"temporaryAuthorization"`
}

// Record maps field ids to cell values, e.g. {"6": {"value": "Alice"}}.
type Record map[string]FieldValue

// FieldValue wraps a cell value the way the records API expects it.
type FieldValue struct {
	Value interface{} `json:"value"`
}

// UpsertOptions are the optional parts of an upsert.
type UpsertOptions struct {
	// FieldsToReturn lists field ids echoed back for every upserted record.
	FieldsToReturn []string
	// MergeFieldID turns the insert into a merge on that unique field.
	MergeFieldID string
}

// UpsertBody is the payload of POST records.
type UpsertBody struct {
	To             string   `json:"to"`
	Data           []Record `json:"data"`
	FieldsToReturn []string `json:"fieldsToReturn,omitempty"`
	MergeFieldID   string   `json:"mergeFieldId,omitempty"`
}

// QueryOptions are the optional parts of a records query.
type QueryOptions struct {
	// Where is either a query string such as "{3.EX.'x'}" or a structured filter.
	Where interface{}
	// SortBy is passed through unchanged, e.g. []SortField or false.
	SortBy interface{}
}

// SortField is one element of a sortBy list.
type SortField struct {
	FieldID string `json:"fieldId"`
	Order   string `json:"order"`
}

// QueryBody is the payload of POST records/query.
type QueryBody struct {
	From   string      `json:"from"`
	Select []string    `json:"select"`
	Where  interface{} `json:"where,omitempty"`
	SortBy interface{} `json:"sortBy,omitempty"`
}

// Legacy XML API resources

// UserInfo is the current user as described by API_GetUserInfo.
// Every field but ID is nil when its element is missing.
type UserInfo struct {
	ID           string
	FirstName    *string
	LastName     *string
	Login        *string
	Email        *string
	ScreenName   *string
	IsVerified   *string
	ExternalAuth *string
}

type userInfoResult struct {
	XMLName xml.Name    `xml:"qdbapi"`
	ErrCode int         `xml:"errcode"`
	ErrText string      `xml:"errtext"`
	User    *legacyUser `xml:"user"`
}

type legacyUser struct {
	ID           string  `xml:"id,attr"`
	FirstName    *string `xml:"firstName"`
	LastName     *string `xml:"lastName"`
	Login        *string `xml:"login"`
	Email        *string `xml:"email"`
	ScreenName   *string `xml:"screenName"`
	IsVerified   *string `xml:"isVerified"`
	ExternalAuth *string `xml:"externalAuth"`
}

// PageType is the kind of a DB page.
type PageType int

const (
	// PageTypeXSL is an XSL stylesheet or HTML page.
	PageTypeXSL PageType = 1
	// PageTypeExactForm is an Exact Forms page.
	PageTypeExactForm PageType = 3
)

// DBPage is a code page stored in an application.
type DBPage struct {
	// ID is zero for a page that does not exist yet.
	ID   int
	Name string
	Type PageType
	Body string
}

type pageResult struct {
	XMLName  xml.Name `xml:"qdbapi"`
	ErrCode  int      `xml:"errcode"`
	ErrText  string   `xml:"errtext"`
	PageID   int      `xml:"pageID"`
	PageBody *string  `xml:"pagebody"`
}
