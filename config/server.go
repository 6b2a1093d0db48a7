package config

// ServerConfig holds the HTTP listener settings and the upload bound
// enforced before a job is created.
type ServerConfig struct {
	Port           string
	MaxUploadBytes int64
	WorkerPoolSize int
}

func GetServerConfig() (*ServerConfig, error) {
	maxUploadMB, err := getEnvInt("MAX_FILE_SIZE_MB", 50)
	if err != nil {
		return nil, err
	}
	poolSize, err := getEnvInt("WORKER_POOL_SIZE", 120)
	if err != nil {
		return nil, err
	}

	return &ServerConfig{
		Port:           getEnv("PORT", "8000"),
		MaxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
		WorkerPoolSize: poolSize,
	}, nil
}
