package parquet_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/harvest/pkg/domain/model"
	"github.com/m-mizutani/harvest/pkg/domain/types"
	"github.com/m-mizutani/harvest/pkg/infra/parquet"
)

func TestDecoder_Decode(t *testing.T) {
	ctx := context.Background()

	rows := []model.TableRow{
		{Columns: []model.Column{
			{Name: "caption", Value: model.StrValue("a cat")},
			{Name: "image", Value: &model.Value{Fields: map[string]*model.Value{
				"bytes": model.BytesValue([]byte{0xff, 0xd8, 0xff, 0x01}),
			}}},
		}},
	}
	payload, err := json.Marshal(&model.DecodeOutput{Count: 1, Rows: rows})
	gt.NoError(t, err)

	var workerInput string
	decoder := parquet.NewDecoder(parquet.WithRunner(func(ctx context.Context, input string) ([]byte, error) {
		workerInput = input

		// The validated buffer must be on disk for the worker
		data, err := os.ReadFile(input)
		gt.NoError(t, err)
		gt.Value(t, string(data)).Equal("PAR1fakePAR1")

		return append(payload, '\n'), nil
	}))

	got, err := decoder.Decode(ctx, []byte("PAR1fakePAR1"))
	gt.NoError(t, err)
	gt.Value(t, got).Equal(rows)

	// The handover file is cleaned up after the run
	_, err = os.Stat(workerInput)
	gt.Value(t, os.IsNotExist(err)).Equal(true)
}

func TestDecoder_Decode_WorkerReportedError(t *testing.T) {
	ctx := context.Background()

	decoder := parquet.NewDecoder(parquet.WithRunner(func(ctx context.Context, input string) ([]byte, error) {
		return []byte(`{"count":0,"error":"corrupt column chunk"}` + "\n"), nil
	}))

	_, err := decoder.Decode(ctx, []byte("PAR1fakePAR1"))
	gt.Error(t, err)
	gt.Value(t, goerr.HasTag(err, types.TagDecode)).Equal(true)
	gt.Value(t, goerr.Values(err)["worker_error"]).Equal("corrupt column chunk")
}

func TestDecoder_Decode_WorkerCrash(t *testing.T) {
	ctx := context.Background()

	var workerInput string
	decoder := parquet.NewDecoder(parquet.WithRunner(func(ctx context.Context, input string) ([]byte, error) {
		workerInput = input
		return nil, errors.New("signal: killed")
	}))

	_, err := decoder.Decode(ctx, []byte("PAR1fakePAR1"))
	gt.Error(t, err)
	gt.Value(t, goerr.HasTag(err, types.TagDecode)).Equal(true)

	// cleanup happens on failure too
	_, err = os.Stat(workerInput)
	gt.Value(t, os.IsNotExist(err)).Equal(true)
}

func TestDecoder_Decode_UnparsableOutput(t *testing.T) {
	ctx := context.Background()

	decoder := parquet.NewDecoder(parquet.WithRunner(func(ctx context.Context, input string) ([]byte, error) {
		return []byte("panic: unexpected fault address\n"), nil
	}))

	_, err := decoder.Decode(ctx, []byte("PAR1fakePAR1"))
	gt.Error(t, err)
	gt.Value(t, goerr.HasTag(err, types.TagDecode)).Equal(true)
}
