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


package audit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

// Logger writes the query audit trail.
type Logger struct {
	queries storage.QueryLogRepository
	pool    *ants.Pool
	logger  *slog.Logger
}

// Option configures a Logger.
type Option func(*Logger) error

// WithPoolSize sets the worker pool size for async audit writes.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(l *Logger) error {
		if size < 1 {
			size = 1
		}
		if l.pool != nil {
			l.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		l.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLogger creates a new audit logger.
func NewLogger(queries storage.QueryLogRepository, opts ...Option) (*Logger, error) {
	if queries == nil {
		return nil, ErrQueryLogRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		queries: queries,
		pool:    pool,
		logger:  slog.Default().With("component", "audit"),
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			l.Release()
			return nil, err
		}
	}

	return l, nil
}

// Record logs a retrieval request asynchronously and returns its query ID
// immediately. Write failures are logged, never surfaced: auditing must not
// affect the retrieval path. The record's ID is content-derived so it is
// known before the write lands.
func (l *Logger) Record(record *core.QueryRecord, chunks ...*core.QueryChunk) core.ID {
	if record.InsertedAt.IsZero() {
		// Stored timestamps are microsecond precision
		record.InsertedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	if record.Id == 0 {
		record.Id = core.IDFromContent(fmt.Sprintf("%s|%s|%d",
			record.Subject, record.Question, record.InsertedAt.UnixNano()))
	}

	id := record.Id
	err := l.pool.Submit(func() {
		if _, err := l.queries.AddQuery(context.Background(), record, chunks...); err != nil {
			l.logger.Error("error writing query audit record", "queryID", id, "err", err)
		}
	})
	if err != nil {
		l.logger.Error("error submitting query audit record", "queryID", id, "err", err)
	}

	return id
}

// AttachFeedback synchronously attaches feedback to a query. Only the
// caller who issued the query may rate it; anyone else gets
// ErrFeedbackNotAllowed regardless of role.
func (l *Logger) AttachFeedback(ctx context.Context, principal core.Principal, feedback *core.Feedback) (*core.Feedback, error) {
	if !principal.Authenticated {
		return nil, ErrFeedbackNotAllowed
	}

	query, err := l.queries.GetQuery(ctx, feedback.QueryId)
	if err != nil {
		return nil, err
	}
	if query.Subject != principal.Subject {
		return nil, ErrFeedbackNotAllowed
	}

	feedback.Subject = principal.Subject
	return l.queries.AddFeedback(ctx, feedback)
}

// Release releases the worker pool. Pending writes may be dropped.
// The logger should not be used after calling Release.
func (l *Logger) Release() {
	if l.pool != nil {
		l.pool.Release()
	}
}
