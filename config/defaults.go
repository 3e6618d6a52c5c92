package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets every key so environment variables can override any of
// them.  Calibration defaults are the pea tray rig
func setDefaults(v *viper.Viper) {

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.backend", "dir")
	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.daily_layout", "pea_2006-01-02.png")
	v.SetDefault("storage.archive", true)
	v.SetDefault("storage.sftp.host", "")
	v.SetDefault("storage.sftp.port", 22)
	v.SetDefault("storage.sftp.user", "")
	v.SetDefault("storage.sftp.password", "")
	v.SetDefault("storage.sftp.key_file", "")
	v.SetDefault("storage.sftp.known_hosts", "")
	v.SetDefault("storage.sftp.base_path", "")
	v.SetDefault("storage.sftp.timeout", 30*time.Second)

	v.SetDefault("segment.endpoint", "")
	v.SetDefault("segment.api_key", "")
	v.SetDefault("segment.timeout", 120*time.Second)
	v.SetDefault("classify.endpoint", "")
	v.SetDefault("classify.api_key", "")
	v.SetDefault("classify.timeout", 60*time.Second)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "trayseg")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic", "trayseg/signal")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.retain", false)
	v.SetDefault("mqtt.timeout", 30*time.Second)

	v.SetDefault("schedule.daily_time", "20:30")
	v.SetDefault("metrics.listen", "")

	v.SetDefault("pipeline.workers", 0)
	v.SetDefault("pipeline.labels_file", "")

	v.SetDefault("calibration.stations", []map[string]any{
		{"id": 1, "x": 1507, "y": 817},
		{"id": 2, "x": 980, "y": 809},
		{"id": 3, "x": 442, "y": 794},
		{"id": 4, "x": 1531, "y": 271},
		{"id": 5, "x": 997, "y": 286},
		{"id": 6, "x": 463, "y": 235},
	})
	v.SetDefault("calibration.class_names", []string{"plant", "reference_panel"})
	v.SetDefault("calibration.saturation", []int{223, 211, 206})
	v.SetDefault("calibration.reflectance", []float64{0.166, 0.175, 0.178})
	v.SetDefault("calibration.canvas_width", 780)
	v.SetDefault("calibration.canvas_height", 780)
}
