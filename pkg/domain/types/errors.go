package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify pipeline failures. The first four are fatal to the
// whole import run; TagNoUniqueName is recovered into the per-row error
// list by the aggregator.
var (
	TagInvalidReference = goerr.NewTag("invalid_reference")
	TagRemoteFetch      = goerr.NewTag("remote_fetch")
	TagInvalidContent   = goerr.NewTag("invalid_content")
	TagDecode           = goerr.NewTag("decode")
	TagNoUniqueName     = goerr.NewTag("no_unique_name")
)
