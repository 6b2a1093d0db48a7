package config

import "time"

// MiniMaxConfig holds credentials and voice settings for the MiniMax
// text-to-audio endpoint. An empty ApiKey switches the service into mock
// synthesis mode instead of failing startup.
type MiniMaxConfig struct {
	ApiUrl         string
	ApiKey         string
	GroupID        string
	DefaultVoiceID string
	Speed          float64
	Volume         float64
	Pitch          int
	RequestTimeout time.Duration
}

func GetMiniMaxConfig() (*MiniMaxConfig, error) {
	speed, err := getEnvFloat("DEFAULT_SPEED", 1.0)
	if err != nil {
		return nil, err
	}
	volume, err := getEnvFloat("DEFAULT_VOLUME", 1.0)
	if err != nil {
		return nil, err
	}
	pitch, err := getEnvInt("DEFAULT_PITCH", 0)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvDuration("TTS_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return &MiniMaxConfig{
		ApiUrl:         getEnv("MINIMAX_API_URL", "https://api.minimax.chat/v1/t2a_v2"),
		ApiKey:         getEnv("MINIMAX_API_KEY", ""),
		GroupID:        getEnv("MINIMAX_GROUP_ID", ""),
		DefaultVoiceID: getEnv("DEFAULT_VOICE", "female-qn-qingse"),
		Speed:          speed,
		Volume:         volume,
		Pitch:          pitch,
		RequestTimeout: timeout,
	}, nil
}
