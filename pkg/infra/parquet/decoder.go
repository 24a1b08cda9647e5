package parquet

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harvest/pkg/domain/interfaces"
	"github.com/m-mizutani/harvest/pkg/domain/model"
	"github.com/m-mizutani/harvest/pkg/domain/types"
	"github.com/m-mizutani/harvest/pkg/utils/safe"
)

// DecodeCommand is the hidden CLI command the worker process runs under
const DecodeCommand = "decode-table"

// runnerFunc executes the decode worker against a parquet file and returns
// its raw stdout
type runnerFunc func(ctx context.Context, input string) ([]byte, error)

type decoder struct {
	runner runnerFunc
}

// Option configures the decoder
type Option func(*decoder)

// WithRunner replaces the worker invocation, for tests
func WithRunner(r runnerFunc) Option {
	return func(d *decoder) {
		d.runner = r
	}
}

// NewDecoder creates a TableDecoder that runs the parquet decode in a
// separate worker process. The validated buffer is handed over via a
// temporary file and the rows come back as a single JSON line on the
// worker's stdout, keeping the decode dependency out of the caller's
// process environment.
func NewDecoder(opts ...Option) interfaces.TableDecoder {
	d := &decoder{runner: runWorker}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *decoder) Decode(ctx context.Context, buf []byte) ([]model.TableRow, error) {
	logger := ctxlog.From(ctx)

	tmp, err := os.CreateTemp("", "harvest-table-*.parquet")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary file", goerr.T(types.TagDecode))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return nil, goerr.Wrap(err, "failed to write buffer to temporary file",
			goerr.T(types.TagDecode), goerr.V("path", tmpName))
	}
	if err := tmp.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to flush temporary file",
			goerr.T(types.TagDecode), goerr.V("path", tmpName))
	}

	logger.Debug("Spawning decode worker",
		slog.String("input", tmpName),
		slog.Int("size_bytes", len(buf)),
	)

	out, err := d.runner(ctx, tmpName)
	if err != nil {
		return nil, goerr.Wrap(err, "decode worker failed", goerr.T(types.TagDecode))
	}

	line, _, _ := bytes.Cut(bytes.TrimSpace(out), []byte("\n"))
	var decoded model.DecodeOutput
	if err := json.Unmarshal(line, &decoded); err != nil {
		return nil, goerr.Wrap(err, "decode worker produced unreadable output",
			goerr.T(types.TagDecode), goerr.V("output", safe.Preview(out, 512)))
	}
	if decoded.Error != "" {
		return nil, goerr.New("decode worker reported failure",
			goerr.T(types.TagDecode), goerr.V("worker_error", decoded.Error))
	}

	logger.Debug("Decode worker finished", slog.Int("rows", decoded.Count))

	return decoded.Rows, nil
}

// runWorker re-executes the current binary as the decode worker with a
// minimal environment
func runWorker(ctx context.Context, input string) ([]byte, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to locate own executable")
	}

	cmd := exec.CommandContext(ctx, exe, DecodeCommand, "--input", input)
	cmd.Env = minimalEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, goerr.Wrap(err, "decode worker exited abnormally",
			goerr.V("stderr", safe.Preview(stderr.Bytes(), 512)))
	}
	return stdout.Bytes(), nil
}

// minimalEnv keeps only the variables the worker needs to start
func minimalEnv() []string {
	var env []string
	for _, key := range []string{"PATH", "HOME", "TMPDIR", "TEMP", "TMP", "SYSTEMROOT"} {
		if v, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+v)
		}
	}
	return env
}
