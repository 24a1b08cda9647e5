package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/harvest/pkg/domain/model"
)

func imageRow(fields map[string]*model.Value, extra ...model.Column) model.TableRow {
	cols := []model.Column{
		{Name: "image", Value: &model.Value{Fields: fields}},
	}
	return model.TableRow{Columns: append(cols, extra...)}
}

var jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}

func TestExtractRow_EmbeddedBytes(t *testing.T) {
	ctx := context.Background()

	row := imageRow(
		map[string]*model.Value{"bytes": model.BytesValue(jpegHeader)},
		model.Column{Name: "caption", Value: model.StrValue("a cat")},
	)

	asset, skipped, err := extractRow(ctx, row, nil)
	gt.NoError(t, err)
	gt.Value(t, skipped).Equal(false)
	gt.Value(t, asset.ImageBytes).Equal(jpegHeader)
	gt.Value(t, asset.Caption).Equal("a cat")
	gt.Value(t, asset.Ext).Equal(".jpg")
	// base name is content-derived when no path hint exists
	gt.Value(t, len(asset.BaseName)).Equal(16)
}

func TestExtractRow_NameIsDeterministic(t *testing.T) {
	ctx := context.Background()

	row := imageRow(map[string]*model.Value{"bytes": model.BytesValue(jpegHeader)})

	first, _, err := extractRow(ctx, row, nil)
	gt.NoError(t, err)
	second, _, err := extractRow(ctx, row, nil)
	gt.NoError(t, err)
	gt.Value(t, first.BaseName).Equal(second.BaseName)
}

func TestExtractRow_ByteCoercion(t *testing.T) {
	ctx := context.Background()

	t.Run("base64 text payload", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString(jpegHeader)
		row := imageRow(map[string]*model.Value{"bytes": model.StrValue(encoded)})

		asset, skipped, err := extractRow(ctx, row, nil)
		gt.NoError(t, err)
		gt.Value(t, skipped).Equal(false)
		gt.Value(t, asset.ImageBytes).Equal(jpegHeader)
	})

	t.Run("alternate data field", func(t *testing.T) {
		row := imageRow(map[string]*model.Value{"data": model.BytesValue(jpegHeader)})

		asset, skipped, err := extractRow(ctx, row, nil)
		gt.NoError(t, err)
		gt.Value(t, skipped).Equal(false)
		gt.Value(t, asset.ImageBytes).Equal(jpegHeader)
	})

	t.Run("text payload that is coincidentally valid base64", func(t *testing.T) {
		// "abcdabcd" decodes cleanly but not to an image signature, so
		// the literal text bytes must be kept
		row := imageRow(map[string]*model.Value{"bytes": model.StrValue("abcdabcd")})

		asset, skipped, err := extractRow(ctx, row, nil)
		gt.NoError(t, err)
		gt.Value(t, skipped).Equal(false)
		gt.Value(t, asset.ImageBytes).Equal([]byte("abcdabcd"))
	})

	t.Run("unsupported payload type", func(t *testing.T) {
		n := int64(42)
		row := imageRow(map[string]*model.Value{"bytes": {Int: &n}})

		_, _, err := extractRow(ctx, row, nil)
		gt.Error(t, err)
	})
}

func TestExtractRow_PathReference(t *testing.T) {
	ctx := context.Background()

	row := imageRow(map[string]*model.Value{"path": model.StrValue("imgs/dog.png")})

	fetch := func(ctx context.Context, path string) ([]byte, error) {
		gt.Value(t, path).Equal("imgs/dog.png")
		return []byte("png-bytes"), nil
	}

	asset, skipped, err := extractRow(ctx, row, fetch)
	gt.NoError(t, err)
	gt.Value(t, skipped).Equal(false)
	gt.Value(t, asset.ImageBytes).Equal([]byte("png-bytes"))
	gt.Value(t, asset.BaseName).Equal("dog")
	gt.Value(t, asset.Ext).Equal(".png")
}

func TestExtractRow_PathFetchFailure(t *testing.T) {
	ctx := context.Background()

	row := imageRow(map[string]*model.Value{"path": model.StrValue("imgs/dog.png")})

	fetch := func(ctx context.Context, path string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}

	_, skipped, err := extractRow(ctx, row, fetch)
	gt.Error(t, err)
	gt.Value(t, skipped).Equal(false)
}

func TestExtractRow_Skipped(t *testing.T) {
	ctx := context.Background()

	t.Run("no image column", func(t *testing.T) {
		row := model.TableRow{Columns: []model.Column{
			{Name: "caption", Value: model.StrValue("orphan")},
		}}

		_, skipped, err := extractRow(ctx, row, nil)
		gt.NoError(t, err)
		gt.Value(t, skipped).Equal(true)
	})

	t.Run("empty image struct", func(t *testing.T) {
		row := imageRow(map[string]*model.Value{})

		_, skipped, err := extractRow(ctx, row, nil)
		gt.NoError(t, err)
		gt.Value(t, skipped).Equal(true)
	})

	t.Run("path without fetcher", func(t *testing.T) {
		row := imageRow(map[string]*model.Value{"path": model.StrValue("imgs/dog.png")})

		_, skipped, err := extractRow(ctx, row, nil)
		gt.NoError(t, err)
		gt.Value(t, skipped).Equal(true)
	})

	// an image struct whose fields are all null arrives from the decode
	// worker as an empty JSON object, which unmarshals to a value with
	// nothing set
	t.Run("all-null struct after wire hop", func(t *testing.T) {
		var v model.Value
		gt.NoError(t, json.Unmarshal([]byte(`{}`), &v))
		row := model.TableRow{Columns: []model.Column{
			{Name: "image", Value: &v},
		}}

		_, skipped, err := extractRow(ctx, row, nil)
		gt.NoError(t, err)
		gt.Value(t, skipped).Equal(true)
	})
}

func TestExtractRow_UnsupportedImageShape(t *testing.T) {
	ctx := context.Background()

	row := model.TableRow{Columns: []model.Column{
		{Name: "image", Value: model.StrValue("not a struct")},
	}}

	_, _, err := extractRow(ctx, row, nil)
	gt.Error(t, err)
}

func TestExtractCaption_Order(t *testing.T) {
	row := model.TableRow{Columns: []model.Column{
		{Name: "text", Value: model.StrValue("from text")},
		{Name: "caption", Value: model.StrValue("from caption")},
	}}
	gt.Value(t, extractCaption(row)).Equal("from caption")

	row = model.TableRow{Columns: []model.Column{
		{Name: "caption", Value: nil},
		{Name: "text", Value: model.StrValue("from text")},
	}}
	gt.Value(t, extractCaption(row)).Equal("from text")

	row = model.TableRow{Columns: []model.Column{
		{Name: "id", Value: model.StrValue("7")},
	}}
	gt.Value(t, extractCaption(row)).Equal("")
}

func TestSniffImageExt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, ".jpg"},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00}, ".png"},
		{"gif", []byte("GIF89a"), ".gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), ".webp"},
		{"bmp", []byte("BM\x00\x00"), ".bmp"},
		{"unknown falls back to jpg", []byte("????"), ".jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, sniffImageExt(tt.data)).Equal(tt.want)
		})
	}
}
