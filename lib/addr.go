package lib

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/gravitational/trace"
)

// RealmURL turns a realm hostname such as "acme.quickbase.com" into a base URL.
// Addresses which already carry a scheme are kept as is.
func RealmURL(realm string) (*url.URL, error) {
	var (
		result *url.URL
		err    error
	)
	if realm == "" {
		return nil, trace.BadParameter("realm hostname is empty")
	}
	if !strings.HasPrefix(realm, "http://") && !strings.HasPrefix(realm, "https://") {
		realm = "https://" + realm
	}
	if result, err = url.Parse(realm); err != nil {
		return nil, trace.Wrap(err)
	}
	if result.Scheme == "https" && result.Port() == "443" {
		// Cut off redundant :443
		result.Host = result.Hostname()
	}
	result.Path = strings.TrimSuffix(result.Path, "/")
	return result, nil
}

// BuildURLPath joins path-escaped segments with a slash.
func BuildURLPath(args ...interface{}) string {
	var pathArgs []string
	for _, a := range args {
		var str string
		switch v := a.(type) {
		case string:
			str = v
		default:
			str = fmt.Sprint(v)
		}
		pathArgs = append(pathArgs, url.PathEscape(str))
	}
	return path.Join(pathArgs...)
}
