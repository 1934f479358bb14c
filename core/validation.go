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

import (
	"fmt"
	"strings"
)

// ValidateRecord validates a Record before it is written to a vector store.
//
// Validation rules:
//   - ID must not be empty
//   - Values must not be empty
//   - Metadata must not be empty
//
// NOT validated:
//   - Vector dimension (checked by the store against its configured dimension)
//   - Individual metadata keys
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyID)
	}

	if len(record.Values) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyVector)
	}

	if len(record.Metadata) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingMetadata)
	}

	return nil
}

// ValidateNamespace checks that a namespace is usable as a storage partition.
// Namespaces must be non-empty and may not contain '/' or whitespace.
func ValidateNamespace(namespace string) error {
	if namespace == "" {
		return fmt.Errorf("%w: namespace is empty", ErrInvalidNamespace)
	}
	if strings.ContainsAny(namespace, "/ \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, namespace)
	}
	return nil
}

// ValidateSpan checks that a span lies within a text of length textLen
// and is not empty.
func ValidateSpan(span Span, textLen int) error {
	if span.Start < 0 || span.End > textLen || span.Start >= span.End {
		return fmt.Errorf("%w: [%d, %d) in text of length %d", ErrInvalidSpan, span.Start, span.End, textLen)
	}
	return nil
}
