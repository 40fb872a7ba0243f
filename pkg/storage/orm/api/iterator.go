// Copyright (c) 2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

// ResultIterator is a lazy single-pass iterator over hydrated entities.
// It holds a server-side cursor and must not be shared across goroutines.
type ResultIterator interface {
	// HasNext reports whether Next will deliver another entity. Once it
	// returns false it returns false forever and the scan is released.
	HasNext() bool

	// Next returns the next entity. It fails with ErrNoSuchElement when the
	// iterator is exhausted or the fetch size was consumed.
	Next() (interface{}, error)

	// Remove is not supported and always fails with ErrUnsupportedOperation.
	Remove() error

	// NextChunk returns up to chunkSize entities, fewer on exhaustion. It
	// never fails with ErrNoSuchElement.
	NextChunk(chunkSize int) ([]interface{}, error)

	// Close releases the scan without consuming the remaining rows.
	Close()
}
