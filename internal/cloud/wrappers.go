// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a decorator around the ObjectStore capability. The
// decorator adds two behaviors without altering the wrapped implementation:
//
//   - Rate limiting: image publishes can fan out to many uploads per
//     invocation; the limiter keeps the service inside the container's write
//     quota.
//   - Per-call timeouts: the source behavior specified no timeout semantics,
//     so every remote call gets an explicit deadline here and exceeding it
//     surfaces as an ordinary transient failure.
//
// Structs:
//   - ThrottledObjectStore: Wraps an ObjectStore with a rate limiter and
//     per-call deadlines.
package cloud

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCallTimeout is applied when the configuration does not specify a
// per-call timeout.
const DefaultCallTimeout = 30 * time.Second

// ThrottledObjectStore is a decorator that wraps another ObjectStore and adds
// a write rate limit plus per-call deadlines. It implements ObjectStore
// itself, so commands do not know whether they hold the raw store or the
// throttled one.
type ThrottledObjectStore struct {
	store       ObjectStore
	writeLimit  *rate.Limiter
	callTimeout time.Duration
}

// NewThrottledObjectStore is the constructor for ThrottledObjectStore.
//
// Inputs:
//   - store: The ObjectStore to wrap.
//   - writesPerSecond: The maximum number of Write calls allowed per second.
//     Zero or negative disables the limiter.
//   - callTimeout: The deadline applied to every remote call. Zero selects
//     DefaultCallTimeout.
func NewThrottledObjectStore(store ObjectStore, writesPerSecond int, callTimeout time.Duration) *ThrottledObjectStore {
	var limiter *rate.Limiter
	if writesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Second/time.Duration(writesPerSecond)), writesPerSecond)
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &ThrottledObjectStore{store: store, writeLimit: limiter, callTimeout: callTimeout}
}

// withDeadline derives a bounded context for one remote call.
func (t *ThrottledObjectStore) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.callTimeout)
}

// List enumerates object names under the prefix with a call deadline.
func (t *ThrottledObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.store.List(ctx, prefix)
}

// Read downloads the named object with a call deadline.
func (t *ThrottledObjectStore) Read(ctx context.Context, name string) ([]byte, error) {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.store.Read(ctx, name)
}

// Exists checks object presence with a call deadline.
func (t *ThrottledObjectStore) Exists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.store.Exists(ctx, name)
}

// Copy performs a server-side copy with a call deadline.
func (t *ThrottledObjectStore) Copy(ctx context.Context, src string, dst string) error {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.store.Copy(ctx, src, dst)
}

// Delete removes the named object with a call deadline.
func (t *ThrottledObjectStore) Delete(ctx context.Context, name string) error {
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.store.Delete(ctx, name)
}

// Write uploads with both the rate limiter and a call deadline. Wait blocks
// until the limiter grants a slot or the caller's context is cancelled.
func (t *ThrottledObjectStore) Write(ctx context.Context, name string, data []byte, contentType string) error {
	if t.writeLimit != nil {
		if err := t.writeLimit.Wait(ctx); err != nil {
			return err
		}
	}
	ctx, cancel := t.withDeadline(ctx)
	defer cancel()
	return t.store.Write(ctx, name, data, contentType)
}
