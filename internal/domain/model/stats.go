package model

// TypeCount aggregates leak records for one secret type.
type TypeCount struct {
	Count       int
	DisplayName string
}

// RepoCount aggregates leak records for one repository.
type RepoCount struct {
	Count int
	URL   string
}

// Stats summarizes a completed scan. LeakedSecrets counts distinct secret
// values with at least one record; TotalRecords counts every record.
type Stats struct {
	TotalSecrets  int
	LeakedSecrets int
	TotalRecords  int
	UniqueRepos   int
	LeakageRate   float64 // LeakedSecrets / TotalSecrets * 100, 0 when no secrets.
	ByType        map[SecretType]TypeCount
	ByRepo        map[string]RepoCount
}

// HasLeaks reports whether the scan produced any records.
func (s Stats) HasLeaks() bool {
	return s.TotalRecords > 0
}
