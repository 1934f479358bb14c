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

// Package search finds transcript excerpts relevant to a free-text query.
//
// The Searcher embeds the query, retrieves the nearest records from the
// vector store, and re-ranks them using two extra signals:
//   - Field matches, when the query names a record's company or interviewee
//   - Verbatim keyword matching with stop-word filtering
//
// Results are ordered by the combined score.
package search
