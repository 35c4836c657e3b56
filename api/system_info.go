package api

import (
	"time"
)

type SystemInfo struct {
	Version   string
	Codec     string
	StartedAt time.Time
}

func NewSystemInfo(version, codec string) *SystemInfo {
	return &SystemInfo{
		Version:   version,
		Codec:     codec,
		StartedAt: time.Now(),
	}
}

// UptimeSeconds returns system uptime in seconds (int64)
func (s *SystemInfo) UptimeSeconds() int64 {
	return int64(time.Since(s.StartedAt).Seconds())
}
