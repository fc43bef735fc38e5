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
	"reflect"

	"github.com/gravitational/trace"

	"github.com/gravitational/qbrest/lib"
	"github.com/gravitational/qbrest/lib/params"
)

// RunReport runs a saved report of the table.
func (c *Client) RunReport(ctx context.Context, tableID, reportID string) (*Response, error) {
	resp, err := c.Send(ctx, Request{
		Method:  http.MethodPost,
		Path:    lib.BuildURLPath("reports", reportID, "run"),
		TableID: tableID,
		Params:  params.New("tableId", tableID),
	})
	return resp, trace.Wrap(err)
}

// Upsert inserts or updates records of the table. At least one record is required.
func (c *Client) Upsert(ctx context.Context, tableID string, records []Record, opts UpsertOptions) (*Response, error) {
	if len(records) == 0 {
		return nil, trace.BadParameter("no records to upsert into table %s", tableID)
	}
	body := &UpsertBody{
		To:             tableID,
		Data:           records,
		FieldsToReturn: opts.FieldsToReturn,
		MergeFieldID:   opts.MergeFieldID,
	}
	resp, err := c.Send(ctx, Request{
		Method:  http.MethodPost,
		Path:    "records",
		TableID: tableID,
		Body:    body,
	})
	return resp, trace.Wrap(err)
}

// MergeUpsert upserts records merging on the given unique field.
func (c *Client) MergeUpsert(ctx context.Context, tableID string, records []Record, mergeFieldID string) (*Response, error) {
	return c.Upsert(ctx, tableID, records, UpsertOptions{MergeFieldID: mergeFieldID})
}

// Query selects fields of the table's records.
func (c *Client) Query(ctx context.Context, tableID string, fields []string, opts QueryOptions) (*Response, error) {
	body := &QueryBody{
		From:   tableID,
		Select: fields,
	}
	if truthy(opts.Where) {
		body.Where = opts.Where
	}
	if truthy(opts.SortBy) {
		body.SortBy = opts.SortBy
	}
	resp, err := c.Send(ctx, Request{
		Method:  http.MethodPost,
		Path:    "records/query",
		TableID: tableID,
		Body:    body,
	})
	return resp, trace.Wrap(err)
}

// truthy is false for nil, zero scalars and nil slices, maps or pointers.
// Empty but non-nil collections are kept.
func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.Struct:
		return true
	default:
		return !rv.IsZero()
	}
}
