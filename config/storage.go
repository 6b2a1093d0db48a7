package config

import "time"

// StorageConfig selects where chunk audio and artifacts live. When
// S3Bucket is set the S3-backed store is wired, otherwise local disk.
type StorageConfig struct {
	AudioDir  string
	S3Bucket  string
	S3Region  string
	Retention time.Duration
}

func GetStorageConfig() (*StorageConfig, error) {
	retention, err := getEnvDuration("JOB_RETENTION", time.Hour)
	if err != nil {
		return nil, err
	}

	return &StorageConfig{
		AudioDir:  getEnv("AUDIO_OUTPUT_PATH", "audio_output"),
		S3Bucket:  getEnv("AUDIO_S3_BUCKET", ""),
		S3Region:  getEnv("AUDIO_S3_REGION", ""),
		Retention: retention,
	}, nil
}
