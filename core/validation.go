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

import "strings"

// ValidateDocument checks that a document is suitable for ingestion.
// Whitespace-only text counts as empty.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return ErrEmptyDocumentID
	}
	if strings.TrimSpace(doc.ID) == "" {
		return ErrEmptyDocumentID
	}
	if strings.TrimSpace(doc.Text) == "" {
		return ErrEmptyDocumentText
	}
	return nil
}

// ValidateRecord checks that a vector record can be upserted.
// Dimension agreement with the target collection is the store's
// responsibility, not validated here.
func ValidateRecord(record *VectorRecord) error {
	if record == nil || record.ID == "" {
		return ErrEmptyRecordID
	}
	if len(record.Vector) == 0 {
		return ErrEmptyVector
	}
	return nil
}
