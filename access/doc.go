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


// Package access resolves which collections and documents a caller may read.
//
// Visibility is resolved before any search runs, never applied as a filter
// afterwards. A non-admin caller sees the union of default collections and
// collections explicitly granted to their subject. Admins see everything.
// Unauthenticated callers see nothing.
//
// Only active document versions are ever readable through the resolver;
// drafts and archived versions are reachable only through admin tooling.
package access
