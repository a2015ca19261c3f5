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


package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	// Lookups by ID, checksum, name, and cache key all use it, so callers
	// can treat "absent" uniformly across repositories.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert would violate a
	// uniqueness constraint, such as a collection name or a document
	// source checksum that is already stored.
	ErrDuplicateKey = errors.New("duplicate key")
)
