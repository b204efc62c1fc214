// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/taxonify/ai"
	"github.com/poiesic/taxonify/core"
)

// Description pairs a media URI with its generated description.
// Pairing is by URI; output order is not guaranteed to match input order.
type Description struct {
	URI  string
	Text string
}

// Describer converts media URIs into textual descriptions via a generative
// model, fanning out one request per item across a bounded worker pool and
// joining all results before returning.
type Describer struct {
	model    ai.MediaModel
	poolSize int
	policy   RetryPolicy
	logger   *slog.Logger
}

// DescriberOption configures a Describer.
type DescriberOption func(*Describer)

// WithPoolSize sets the worker pool size.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) DescriberOption {
	return func(d *Describer) {
		if size >= 1 {
			d.poolSize = size
		}
	}
}

// WithRetryPolicy overrides the per-item retry policy.
// Default is DefaultRetryPolicy.
func WithRetryPolicy(policy RetryPolicy) DescriberOption {
	return func(d *Describer) {
		d.policy = policy
	}
}

// WithDescriberLogger sets a custom logger. Default is slog.Default().
func WithDescriberLogger(logger *slog.Logger) DescriberOption {
	return func(d *Describer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDescriber creates a describer over a media model.
func NewDescriber(model ai.MediaModel, opts ...DescriberOption) (*Describer, error) {
	if model == nil {
		return nil, ErrMediaModelRequired
	}
	poolSize := runtime.NumCPU()
	if poolSize < 1 {
		poolSize = 1
	}
	d := &Describer{
		model:    model,
		poolSize: poolSize,
		policy:   DefaultRetryPolicy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Describe generates a description for every URI. Each URI's extension is
// validated against the media allow-lists before any network activity; one
// invalid extension fails the whole call.
//
// Items run concurrently across the worker pool. A rate-limited item is
// retried under the describer's policy on its own worker; exhausting retries
// surfaces that item's last error after all siblings have finished, so a
// failing item never poisons the others.
func (d *Describer) Describe(ctx context.Context, uris []string) ([]Description, error) {
	if len(uris) == 0 {
		return nil, nil
	}

	kinds := make([]core.MediaKind, len(uris))
	for i, uri := range uris {
		kind, err := core.MediaKindOf(uri)
		if err != nil {
			return nil, fmt.Errorf("media uri %q: %w", uri, err)
		}
		kinds[i] = kind
	}

	pool, err := ants.NewPool(d.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	descriptions := make([]Description, len(uris))
	itemErrs := make([]error, len(uris))
	for i := range uris {
		uri, kind := uris[i], kinds[i]
		index := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			itemErrs[index] = d.policy.Do(ctx, func() error {
				text, describeErr := d.model.DescribeMedia(ctx, uri, kind)
				if describeErr != nil {
					return describeErr
				}
				descriptions[index] = Description{URI: uri, Text: text}
				return nil
			})
		})
		if submitErr != nil {
			wg.Done()
			itemErrs[index] = submitErr
		}
	}
	wg.Wait()

	out := make([]Description, 0, len(uris))
	var failures []error
	for i, itemErr := range itemErrs {
		if itemErr != nil {
			d.logger.Error("failed to describe media", "uri", uris[i], "err", itemErr)
			failures = append(failures, fmt.Errorf("describe %s: %w", uris[i], itemErr))
			continue
		}
		out = append(out, descriptions[i])
	}
	if len(failures) > 0 {
		return nil, errors.Join(failures...)
	}
	return out, nil
}
