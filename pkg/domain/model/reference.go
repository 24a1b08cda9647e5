package model

// RepoKind identifies which hub namespace a reference belongs to
type RepoKind string

const (
	// RepoKindAuto means the namespace is unknown and both must be tried
	RepoKindAuto RepoKind = "auto"
	// RepoKindDatasets pins the reference to the dataset namespace
	RepoKindDatasets RepoKind = "datasets"
	// RepoKindModels pins the reference to the model namespace
	RepoKindModels RepoKind = "models"
)

// Reference is the structured identity of a remote parquet file on the hub
type Reference struct {
	RepoID   string   // "org/name", exactly one slash
	Revision string   // branch, tag or commit; defaults to "main"
	FilePath string   // path inside the repository, ends in ".parquet"
	Kind     RepoKind // namespace the reference is pinned to, or Auto
}
