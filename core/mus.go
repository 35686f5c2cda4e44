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
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// VectorRecordMUS is the MUS serializer for VectorRecord, used by the
// embedded vector store. Vector components use the raw fixed-width
// encoding; strings and lengths use the ordinary varint-prefixed one.
var VectorRecordMUS = vectorRecordMUS{}

type vectorRecordMUS struct{}

func (vectorRecordMUS) Marshal(r VectorRecord, bs []byte) (n int) {
	n = ord.String.Marshal(r.ID, bs)
	n += varint.Int.Marshal(len(r.Vector), bs[n:])
	for _, c := range r.Vector {
		n += raw.Float32.Marshal(c, bs[n:])
	}
	n += ord.String.Marshal(r.Text, bs[n:])
	n += varint.Int.Marshal(len(r.Payload), bs[n:])
	for k, v := range r.Payload {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}

func (vectorRecordMUS) Unmarshal(bs []byte) (r VectorRecord, n int, err error) {
	var n1 int
	r.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}

	var count int
	count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrCorruptRecord
		return
	}
	if count > 0 {
		r.Vector = make([]float32, count)
		for i := 0; i < count; i++ {
			r.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}

	r.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrCorruptRecord
		return
	}
	if count > 0 {
		r.Payload = make(map[string]string, count)
		for i := 0; i < count; i++ {
			var k, v string
			k, n1, err = ord.String.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
			v, n1, err = ord.String.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
			r.Payload[k] = v
		}
	}
	return
}

func (vectorRecordMUS) Size(r VectorRecord) (size int) {
	size = ord.String.Size(r.ID)
	size += varint.Int.Size(len(r.Vector))
	for _, c := range r.Vector {
		size += raw.Float32.Size(c)
	}
	size += ord.String.Size(r.Text)
	size += varint.Int.Size(len(r.Payload))
	for k, v := range r.Payload {
		size += ord.String.Size(k)
		size += ord.String.Size(v)
	}
	return size
}

// MarshalVectorRecord serializes a VectorRecord to bytes.
func MarshalVectorRecord(r *VectorRecord) []byte {
	buf := make([]byte, VectorRecordMUS.Size(*r))
	VectorRecordMUS.Marshal(*r, buf)
	return buf
}

// UnmarshalVectorRecord deserializes a VectorRecord from bytes.
func UnmarshalVectorRecord(data []byte) (*VectorRecord, error) {
	r, _, err := VectorRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
