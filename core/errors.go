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


package core

import "errors"

// Domain validation errors
var (
	// ErrEmptyDocumentID indicates a document without an identifier.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptyDocumentText indicates a document with no text to ingest.
	ErrEmptyDocumentText = errors.New("document text cannot be empty")

	// ErrEmptyRecordID indicates a vector record without an identifier.
	ErrEmptyRecordID = errors.New("record id cannot be empty")

	// ErrEmptyVector indicates a vector record without an embedding.
	ErrEmptyVector = errors.New("record vector cannot be empty")
)

// Cross-component errors shared by providers, stores and the
// orchestrator. Components wrap these with context via fmt.Errorf and
// callers match with errors.Is.
var (
	// ErrDimensionMismatch indicates a vector whose dimension does not
	// match the collection's declared dimension. Never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrBatchTooLarge indicates an embedding batch exceeding the
	// provider's declared maximum. Never retried.
	ErrBatchTooLarge = errors.New("embedding batch exceeds provider maximum")

	// ErrUnsupportedFilter indicates a search filter the store cannot
	// evaluate. Stores must fail rather than silently ignore filters.
	ErrUnsupportedFilter = errors.New("unsupported search filter")

	// ErrCorruptRecord indicates a stored record that cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt vector record encoding")
)
