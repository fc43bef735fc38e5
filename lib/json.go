/*
Copyright 2015-2021 Gravitational, Inc.

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

package lib

import (
	"github.com/gravitational/trace"
	jsoniter "github.com/json-iterator/go"
)

// jsonAPI mirrors encoding/json semantics (omitempty, struct tags, map key order)
// but leaves HTML characters in query strings unescaped.
var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// FastMarshal serializes given interface to json
func FastMarshal(v interface{}) ([]byte, error) {
	data, err := jsonAPI.Marshal(v)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return data, nil
}

// FastUnmarshal deserializes json data into v
func FastUnmarshal(data []byte, v interface{}) error {
	return trace.Wrap(jsonAPI.Unmarshal(data, v))
}
