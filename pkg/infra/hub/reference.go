package hub

import (
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harvest/pkg/domain/model"
	"github.com/m-mizutani/harvest/pkg/domain/types"
)

const parquetSuffix = ".parquet"

// defaultRevision is used when a reference does not pin one
const defaultRevision = "main"

var knownHosts = []string{
	"huggingface.co/",
	"hf.co/",
}

// ParseReference turns a free-form reference string into a structured
// identity. Accepted shapes:
//
//	org/repo/data/train.parquet
//	org/repo@rev/data/train.parquet
//	datasets/org/repo/data/train.parquet
//	https://huggingface.co/datasets/org/repo/resolve/main/data/train.parquet
//
// The blob URL variant is accepted as an alias of resolve.
func ParseReference(raw string) (*model.Reference, error) {
	s := strings.TrimSpace(raw)
	fromURL := false

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return nil, goerr.Wrap(err, "reference is not a valid URL",
				goerr.T(types.TagInvalidReference), goerr.V("reference", raw))
		}
		s = u.EscapedPath()
		fromURL = true
	} else {
		for _, host := range knownHosts {
			if rest, ok := strings.CutPrefix(s, host); ok {
				s = rest
				break
			}
		}
	}
	s = strings.Trim(s, "/")

	segs := strings.Split(s, "/")
	kind := model.RepoKindAuto
	if segs[0] == "datasets" {
		kind = model.RepoKindDatasets
		segs = segs[1:]
	}
	if len(segs) < 3 {
		return nil, goerr.New("reference needs at least org/repo/file segments",
			goerr.T(types.TagInvalidReference), goerr.V("reference", raw))
	}

	ref := &model.Reference{Revision: defaultRevision, Kind: kind}

	if len(segs) >= 5 && (segs[2] == "resolve" || segs[2] == "blob") {
		ref.RepoID = segs[0] + "/" + segs[1]
		ref.Revision = unescapeSegment(segs[3], fromURL)
		ref.FilePath = unescapeSegment(strings.Join(segs[4:], "/"), fromURL)
		if ref.Kind == model.RepoKindAuto {
			ref.Kind = model.RepoKindModels
		}
	} else {
		org, repo := segs[0], segs[1]
		if strings.Contains(repo, "@") {
			parts := strings.Split(repo, "@")
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return nil, goerr.New("malformed revision in reference",
					goerr.T(types.TagInvalidReference), goerr.V("segment", repo))
			}
			repo, ref.Revision = parts[0], parts[1]
		}
		ref.RepoID = org + "/" + repo
		ref.FilePath = strings.Join(segs[2:], "/")
	}

	if org, repo, ok := strings.Cut(ref.RepoID, "/"); !ok || org == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, goerr.New("repository must be identified as org/name",
			goerr.T(types.TagInvalidReference), goerr.V("repo", ref.RepoID))
	}
	if ref.Revision == "" {
		return nil, goerr.New("empty revision in reference",
			goerr.T(types.TagInvalidReference), goerr.V("reference", raw))
	}
	if !strings.HasSuffix(strings.ToLower(ref.FilePath), parquetSuffix) {
		return nil, goerr.New("reference does not point to a parquet file",
			goerr.T(types.TagInvalidReference), goerr.V("path", ref.FilePath))
	}

	return ref, nil
}

func unescapeSegment(s string, escaped bool) string {
	if !escaped {
		return s
	}
	if d, err := url.PathUnescape(s); err == nil {
		return d
	}
	return s
}
