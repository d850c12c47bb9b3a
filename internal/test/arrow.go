//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package test

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ArrowStreamContentType is the media type of an Arrow IPC stream.
const ArrowStreamContentType = "application/vnd.apache.arrow.stream"

// Int64Stream returns an Arrow IPC stream with a single non-nullable int64
// column. Each batch in batches becomes one record batch.
func Int64Stream(column string, batches ...[]int64) ([]byte, error) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: column, Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	for _, values := range batches {
		b.Field(0).(*array.Int64Builder).AppendValues(values, nil)
		recs = append(recs, b.NewRecord())
	}

	return WriteStream(schema, recs...)
}

// IDVectorStream returns an Arrow IPC stream with an int64 "id" column and a
// float64 "_distance" column in one record batch.
func IDVectorStream(ids []int64, distances []float64) ([]byte, error) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "_distance", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues(ids, nil)
	b.Field(1).(*array.Float64Builder).AppendValues(distances, nil)
	rec := b.NewRecord()
	defer rec.Release()

	return WriteStream(schema, rec)
}

// WriteStream encodes the record batches as an Arrow IPC stream.
func WriteStream(schema *arrow.Schema, recs ...arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
