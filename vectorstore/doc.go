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


// Package vectorstore defines the vector store abstraction.
//
// A Store persists and searches vector+payload records for one
// collection. Implementations are selected by name through the
// variant registry at construction time. Upserts are idempotent by
// record ID (last write wins), and every store declares its
// similarity metric; scores from different metrics are never
// comparable.
//
// Stores must reject filters they cannot evaluate with
// core.ErrUnsupportedFilter rather than silently ignoring them.
//
// Implementation packages:
//
//   - vectorstore/badger: embedded BadgerDB store with cosine
//     similarity and an in-memory mode for tests
//   - vectorstore/milvus: Milvus-backed store for deployments with a
//     dedicated vector database
//
// Stores are safe for concurrent use and are always invoked through
// the resilience layer under the endpoint key "vectorstore:<name>".
package vectorstore
