package status

import "github.com/nerrad567/ledlink-core/internal/wireless"

// Quality is a coarse signal band shown next to the dBm value.
type Quality string

// Signal bands.
const (
	QualityExcellent Quality = "Excellent"
	QualityGood      Quality = "Good"
	QualityFair      Quality = "Fair"
	QualityPoor      Quality = "Poor"
	QualityUnknown   Quality = "Unknown"
)

// SignalQuality bands rssi at -60, -70 and -80 dBm. The sentinel maps to Unknown.
func SignalQuality(rssi int) Quality {
	switch {
	case rssi == wireless.SentinelRSSI:
		return QualityUnknown
	case rssi < -80:
		return QualityPoor
	case rssi < -70:
		return QualityFair
	case rssi < -60:
		return QualityGood
	default:
		return QualityExcellent
	}
}
