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


package vectorstore

import "errors"

var (
	// ErrUnknownStore is returned when no variant is registered under
	// the requested name.
	ErrUnknownStore = errors.New("unknown vector store")

	// ErrCollectionNotFound indicates an operation against a
	// collection that was never created.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrStoreClosed indicates that the store backend is closed.
	ErrStoreClosed = errors.New("store is closed")

	// ErrInvalidTopK indicates a non-positive topK.
	ErrInvalidTopK = errors.New("topK must be greater than zero")

	// ErrEmptyFilter indicates a filtered delete with no predicates.
	ErrEmptyFilter = errors.New("at least one filter is required")
)
