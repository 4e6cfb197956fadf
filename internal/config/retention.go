package config

// RetentionConfig controls the cleanup job.  All values are in days.
type RetentionConfig struct {
	RawPayloadDays int
	RateDays       int
	RequestDays    int
	SnapshotDays   int
}

func LoadRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RawPayloadDays: envPositiveInt("RAW_PAYLOAD_RETENTION_DAYS", 7),
		RateDays:       envPositiveInt("RATE_RETENTION_DAYS", 90),
		RequestDays:    envPositiveInt("REQUEST_RETENTION_DAYS", 90),
		SnapshotDays:   envPositiveInt("SNAPSHOT_RETENTION_DAYS", 180),
	}
}
