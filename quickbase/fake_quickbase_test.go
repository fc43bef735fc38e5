package quickbase

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/julienschmidt/httprouter"
)

const (
	fakeRealm     = "acme.quickbase.com"
	fakeAppToken  = "app-token"
	fakeUserToken = "user-token"
)

// FakeQuickbase serves both the REST API under /v1 and the legacy XML API.
type FakeQuickbase struct {
	srv *httptest.Server

	mu         sync.Mutex
	tokenCalls map[string]int
	requests   []FakeRequest
	statuses   map[string]int
	userXML    string
	pages      map[int]DBPage
	nextPageID int
}

// FakeRequest is a request captured by FakeQuickbase.
type FakeRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// JSON decodes the captured body into a generic map.
func (r FakeRequest) JSON() map[string]interface{} {
	var result map[string]interface{}
	err := json.Unmarshal(r.Body, &result)
	fatalIf(err)
	return result
}

type fakePageRequest struct {
	XMLName   xml.Name `xml:"qdbapi"`
	PageID    int      `xml:"pageid"`
	PageName  string   `xml:"pagename"`
	PageType  int      `xml:"pagetype"`
	UserToken string   `xml:"usertoken"`
	PageBody  string   `xml:"pagebody"`
}

func NewFakeQuickbase() *FakeQuickbase {
	router := httprouter.New()

	qb := &FakeQuickbase{
		tokenCalls: make(map[string]int),
		statuses:   make(map[string]int),
		pages:      make(map[int]DBPage),
		nextPageID: 10,
		srv:        httptest.NewServer(router),
	}

	router.GET("/v1/auth/temporary/:tableID", func(rw http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tableID := ps.ByName("tableID")
		n := qb.countTokenCall(tableID)
		if qb.replyStatus(rw, r) {
			return
		}
		if r.Header.Get(headerAppToken) != fakeAppToken {
			writeJSON(rw, http.StatusUnauthorized, map[string]string{"message": "Unauthorized", "description": "Invalid app token"})
			return
		}
		writeJSON(rw, http.StatusOK, TemporaryAuthorization{Token: fmt.Sprintf("tmp-%s-%d", tableID, n)})
	})
	router.POST("/v1/reports/:reportID/run", func(rw http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		qb.capture(r)
		if qb.replyStatus(rw, r) {
			return
		}
		writeJSON(rw, http.StatusOK, map[string]interface{}{
			"data":     []Record{{"3": {Value: 1}, "6": {Value: "Alice"}}},
			"metadata": map[string]int{"totalRecords": 1, "numRecords": 1},
		})
	})
	router.POST("/v1/records", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		qb.capture(r)
		if qb.replyStatus(rw, r) {
			return
		}
		writeJSON(rw, http.StatusOK, map[string]interface{}{
			"data":     []Record{},
			"metadata": map[string][]int{"createdRecordIds": {1}, "updatedRecordIds": {}},
		})
	})
	router.POST("/v1/records/query", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		qb.capture(r)
		if qb.replyStatus(rw, r) {
			return
		}
		writeJSON(rw, http.StatusOK, map[string]interface{}{
			"data":     []Record{{"3": {Value: 7}}},
			"metadata": map[string]int{"totalRecords": 1},
		})
	})
	router.GET("/db/main", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		qb.capture(r)
		if qb.replyStatus(rw, r) {
			return
		}
		qb.mu.Lock()
		doc := qb.userXML
		qb.mu.Unlock()
		rw.Header().Set("Content-Type", "application/xml")
		_, err := io.WriteString(rw, doc)
		fatalIf(err)
	})
	router.POST("/db/:dbid", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		body := qb.capture(r)
		if qb.replyStatus(rw, r) {
			return
		}
		var req fakePageRequest
		err := xml.Unmarshal(body, &req)
		fatalIf(err)

		action := r.Header.Get(headerLegacyAction)
		if req.UserToken != fakeUserToken {
			writeLegacy(rw, action, 4, "User ticket was invalid", "")
			return
		}

		qb.mu.Lock()
		defer qb.mu.Unlock()
		switch action {
		case actionGetDBPage:
			page, ok := qb.pages[req.PageID]
			if !ok {
				writeLegacy(rw, action, 31, "No such page", "")
				return
			}
			escaped := strings.ReplaceAll(page.Body, "\n", "<BR/>")
			var buf strings.Builder
			err := xml.EscapeText(&buf, []byte(escaped))
			fatalIf(err)
			writeLegacy(rw, action, 0, "No error", "<pagebody>"+buf.String()+"</pagebody>")
		case actionAddReplaceDBPage:
			page := DBPage{ID: req.PageID, Name: req.PageName, Type: PageType(req.PageType), Body: req.PageBody}
			if page.ID == 0 {
				page.ID = qb.nextPageID
				qb.nextPageID++
			} else if old, ok := qb.pages[page.ID]; ok {
				page.Name, page.Type = old.Name, old.Type
			} else {
				writeLegacy(rw, action, 31, "No such page", "")
				return
			}
			qb.pages[page.ID] = page
			writeLegacy(rw, action, 0, "No error", fmt.Sprintf("<pageID>%d</pageID>", page.ID))
		default:
			writeLegacy(rw, action, 1, "Unknown action", "")
		}
	})

	return qb
}

// APIURL is the REST API base.
func (s *FakeQuickbase) APIURL() string {
	return s.srv.URL + "/v1"
}

// URL is the legacy API base.
func (s *FakeQuickbase) URL() string {
	return s.srv.URL
}

func (s *FakeQuickbase) Close() {
	s.srv.Close()
}

// FailWith makes every request to path reply with status.
func (s *FakeQuickbase) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[path] = status
}

// Recover undoes FailWith for path.
func (s *FakeQuickbase) Recover(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, path)
}

func (s *FakeQuickbase) SetUserXML(doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userXML = doc
}

func (s *FakeQuickbase) StorePage(page DBPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page.ID] = page
}

func (s *FakeQuickbase) GetPage(id int) (DBPage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[id]
	return page, ok
}

// TokenCalls returns the number of temporary token requests for the table.
func (s *FakeQuickbase) TokenCalls(tableID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenCalls[tableID]
}

// Requests returns every captured non-token request.
func (s *FakeQuickbase) Requests() []FakeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FakeRequest(nil), s.requests...)
}

func (s *FakeQuickbase) LastRequest() (FakeRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return FakeRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *FakeQuickbase) countTokenCall(tableID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenCalls[tableID]++
	return s.tokenCalls[tableID]
}

func (s *FakeQuickbase) capture(r *http.Request) []byte {
	body, err := io.ReadAll(r.Body)
	fatalIf(err)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, FakeRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     body,
	})
	return body
}

func (s *FakeQuickbase) replyStatus(rw http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	status, ok := s.statuses[r.URL.Path]
	s.mu.Unlock()
	if !ok {
		return false
	}
	writeJSON(rw, status, map[string]string{"message": http.StatusText(status), "description": "fake failure"})
	return true
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	err := json.NewEncoder(rw).Encode(v)
	fatalIf(err)
}

func writeLegacy(rw http.ResponseWriter, action string, code int, text, extra string) {
	rw.Header().Set("Content-Type", "application/xml")
	_, err := fmt.Fprintf(rw, `<?xml version="1.0" ?>
<qdbapi>
   <action>%s</action>
   <errcode>%d</errcode>
   <errtext>%s</errtext>
   %s
</qdbapi>`, action, code, text, extra)
	fatalIf(err)
}

func fatalIf(err error) {
	if err != nil {
		log.Fatalf("%v at %v", err, string(debug.Stack()))
	}
}
