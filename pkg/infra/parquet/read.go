package parquet

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"strconv"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harvest/pkg/domain/model"
)

// ReadFile decodes one parquet file into rows. It runs inside the decode
// worker process; the parent only ever sees its JSON output.
func ReadFile(ctx context.Context, path string) (*model.DecodeOutput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open parquet file", goerr.V("path", path))
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read parquet metadata")
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create arrow reader")
	}

	table, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode parquet data")
	}
	defer table.Release()

	rows, err := tableRows(table)
	if err != nil {
		return nil, err
	}

	return &model.DecodeOutput{Count: len(rows), Rows: rows}, nil
}

// tableRows transposes the column-chunked arrow table into row records
func tableRows(table arrow.Table) ([]model.TableRow, error) {
	numRows := int(table.NumRows())
	numCols := int(table.NumCols())

	rows := make([]model.TableRow, numRows)
	for i := range rows {
		rows[i].Columns = make([]model.Column, numCols)
	}

	for j := 0; j < numCols; j++ {
		name := table.Schema().Field(j).Name

		rowIdx := 0
		for _, chunk := range table.Column(j).Data().Chunks() {
			for k := 0; k < chunk.Len(); k++ {
				if rowIdx >= numRows {
					return nil, goerr.New("column chunk overruns row count", goerr.V("column", name))
				}

				var v *model.Value
				if !chunk.IsNull(k) {
					v = cellValue(chunk, k)
				}
				rows[rowIdx].Columns[j] = model.Column{Name: name, Value: v}
				rowIdx++
			}
		}
	}

	return rows, nil
}

type oneForMarshal interface {
	GetOneForMarshal(i int) any
}

// cellValue converts one array element into the tagged wire value. Unknown
// column types degrade to their JSON rendering; an image dataset only needs
// string, binary, numeric and struct columns to survive losslessly.
func cellValue(arr arrow.Array, i int) *model.Value {
	switch a := arr.(type) {
	case *array.String:
		return model.StrValue(a.Value(i))
	case *array.LargeString:
		return model.StrValue(a.Value(i))
	case *array.Binary:
		return model.BytesValue(copyBytes(a.Value(i)))
	case *array.LargeBinary:
		return model.BytesValue(copyBytes(a.Value(i)))
	case *array.FixedSizeBinary:
		return model.BytesValue(copyBytes(a.Value(i)))
	case *array.Int8:
		return intValue(int64(a.Value(i)))
	case *array.Int16:
		return intValue(int64(a.Value(i)))
	case *array.Int32:
		return intValue(int64(a.Value(i)))
	case *array.Int64:
		return intValue(a.Value(i))
	case *array.Uint8:
		return intValue(int64(a.Value(i)))
	case *array.Uint16:
		return intValue(int64(a.Value(i)))
	case *array.Uint32:
		return intValue(int64(a.Value(i)))
	case *array.Uint64:
		// values beyond the signed range keep their decimal rendering
		// instead of flipping sign
		v := a.Value(i)
		if v > math.MaxInt64 {
			return model.StrValue(strconv.FormatUint(v, 10))
		}
		return intValue(int64(v))
	case *array.Float32:
		return numValue(float64(a.Value(i)))
	case *array.Float64:
		return numValue(a.Value(i))
	case *array.Boolean:
		b := a.Value(i)
		return &model.Value{Bool: &b}
	case *array.Struct:
		st := a.DataType().(*arrow.StructType)
		fields := make(map[string]*model.Value, a.NumField())
		for fi := 0; fi < a.NumField(); fi++ {
			child := a.Field(fi)
			if child.IsNull(i) {
				continue
			}
			fields[st.Field(fi).Name] = cellValue(child, i)
		}
		return &model.Value{Fields: fields}
	default:
		if m, ok := arr.(oneForMarshal); ok {
			if raw, err := json.Marshal(m.GetOneForMarshal(i)); err == nil {
				return model.StrValue(string(raw))
			}
		}
		return nil
	}
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func intValue(v int64) *model.Value {
	return &model.Value{Int: &v}
}

func numValue(v float64) *model.Value {
	return &model.Value{Num: &v}
}
