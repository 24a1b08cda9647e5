package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/harvest/pkg/domain/interfaces"
	"github.com/m-mizutani/harvest/pkg/domain/model"
	"github.com/m-mizutani/harvest/pkg/infra/content"
	"github.com/m-mizutani/harvest/pkg/infra/fsio"
	"github.com/m-mizutani/harvest/pkg/infra/hub"
)

type importer struct {
	hub     interfaces.HubClient
	decoder interfaces.TableDecoder
}

// NewImporter creates the import pipeline use case
func NewImporter(hubClient interfaces.HubClient, decoder interfaces.TableDecoder) interfaces.ImportUseCase {
	return &importer{
		hub:     hubClient,
		decoder: decoder,
	}
}

// Import runs the whole pipeline: parse the reference, fetch the archive,
// validate it, decode it across the worker boundary, then extract and write
// every row. Rows are processed strictly in order, one at a time; a row
// failure lands in the summary and the loop continues.
func (uc *importer) Import(ctx context.Context, datasetDir, reference string) (*model.ImportResult, error) {
	logger := ctxlog.From(ctx)

	ref, err := hub.ParseReference(reference)
	if err != nil {
		return nil, err
	}

	logger.Info("Resolved reference",
		slog.String("repo", ref.RepoID),
		slog.String("revision", ref.Revision),
		slog.String("path", ref.FilePath),
		slog.String("kind", string(ref.Kind)),
	)

	fetched, err := uc.hub.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	logger.Info("Downloaded archive",
		slog.Int("size_bytes", len(fetched.Bytes)),
		slog.String("url", fetched.FinalURL),
		slog.String("content_type", fetched.ContentType),
	)

	buf, err := content.Validate(fetched.Bytes, fetched.ContentType, fetched.ContentEncoding)
	if err != nil {
		return nil, err
	}

	rows, err := uc.decoder.Decode(ctx, buf)
	if err != nil {
		return nil, err
	}

	logger.Info("Decoded archive", slog.Int("rows", len(rows)))

	result := model.NewImportResult()
	for i, row := range rows {
		uc.processRow(ctx, datasetDir, ref, row, i, result)
	}

	logger.Info("Import finished",
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("errors", len(result.Errors)),
	)

	return result, nil
}

// processRow handles one row end to end. Whatever goes wrong inside,
// including a panic, is attributed to this row's index so later rows still
// run.
func (uc *importer) processRow(ctx context.Context, datasetDir string, ref *model.Reference, row model.TableRow, index int, result *model.ImportResult) {
	logger := ctxlog.From(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while processing row", slog.Int("row", index), slog.Any("recover", r))
			result.Errors = append(result.Errors, model.RowError{
				Row:   index,
				Error: fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	fetch := func(ctx context.Context, path string) ([]byte, error) {
		res, err := uc.hub.FetchFile(ctx, ref, path)
		if err != nil {
			return nil, err
		}
		return res.Bytes, nil
	}

	asset, skipped, err := extractRow(ctx, row, fetch)
	if err != nil {
		logger.Warn("Row extraction failed", slog.Int("row", index), slog.Any("error", err))
		result.Errors = append(result.Errors, model.RowError{Row: index, Error: err.Error()})
		return
	}
	if skipped {
		logger.Debug("Row has no image, skipped", slog.Int("row", index))
		result.Skipped++
		return
	}

	imagePath, err := fsio.WriteAsset(datasetDir, asset)
	if err != nil {
		logger.Warn("Row write failed", slog.Int("row", index), slog.Any("error", err))
		result.Errors = append(result.Errors, model.RowError{Row: index, Error: err.Error()})
		return
	}

	logger.Debug("Row imported",
		slog.Int("row", index),
		slog.String("path", imagePath),
		slog.Int("image_bytes", len(asset.ImageBytes)),
	)
	result.Imported++
}
