/*
Copyright 2021 Gravitational, Inc.

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
	"context"

	"github.com/gravitational/trace"
)

// Promise is a value being computed asynchronously.
type Promise[T any] struct {
	doneCh <-chan struct{}
	value  T
	err    error
}

// NewPromise starts the given function in a goroutine and returns a Promise of its result.
func NewPromise[T any](compute func() (T, error)) *Promise[T] {
	doneCh := make(chan struct{})
	promise := Promise[T]{doneCh: doneCh}
	go func() {
		value, err := compute()
		promise.value, promise.err = value, trace.Wrap(err)
		close(doneCh)
	}()
	return &promise
}

// Get waits for the value to be computed and returns the result.
func (promise *Promise[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-promise.doneCh:
		return promise.value, trace.Wrap(promise.err)
	case <-ctx.Done():
		var zero T
		return zero, trace.Wrap(ctx.Err())
	}
}

// Done is closed once the result is available.
func (promise *Promise[T]) Done() <-chan struct{} {
	return promise.doneCh
}
