package params

import "strings"

// Param is a single query string parameter.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered list of query string parameters.
type Params []Param

// New builds Params from name/value pairs. A trailing name without a value is dropped.
func New(pairs ...string) Params {
	result := make(Params, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		result = append(result, Param{Name: pairs[i], Value: pairs[i+1]})
	}
	return result
}

// Encode renders params as "?name1=value1&name2=value2" keeping insertion order.
// Values are interpolated as is, without percent-encoding. Empty params encode to "".
func Encode(p Params) string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('?')
	for i, param := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(param.Name)
		b.WriteByte('=')
		b.WriteString(param.Value)
	}
	return b.String()
}
