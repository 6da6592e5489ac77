// Package msgkey names the status strings the terminal shows. The texts
// live in the i18n catalogs; Plain renders the key itself.
package msgkey

import (
	"fmt"
	"strings"
)

const (
	CatalogLoaded      = "STATUS_CATALOG_LOADED"
	CatalogFailed      = "STATUS_CATALOG_FAILED"
	EnterCode          = "STATUS_ENTER_CODE"
	InvalidCode        = "STATUS_INVALID_CODE"
	CodeAlreadyUsed    = "STATUS_CODE_ALREADY_USED"
	UnknownCodeKind    = "STATUS_UNKNOWN_CODE_KIND"
	AddedBattery       = "STATUS_ADDED_BATTERY"
	AddedFilter        = "STATUS_ADDED_FILTER"
	AddedWater         = "STATUS_ADDED_WATER"
	StorageCleared     = "STATUS_STORAGE_CLEARED"
	RadioUnknown       = "STATUS_RADIO_UNKNOWN"
	RadioReceiving     = "STATUS_RADIO_RECEIVING"
	RadioReceived      = "STATUS_RADIO_RECEIVED"
	RadioAlreadyHeard  = "STATUS_RADIO_ALREADY_HEARD"
	RadioIncomingAudio = "TEXT_RADIO_INCOMING_AUDIO"
	AudioUnavailable   = "STATUS_AUDIO_UNAVAILABLE"
	ToolOverlayBusy    = "STATUS_TOOL_OVERLAY_BUSY"
	FlashlightEmpty    = "STATUS_FLASHLIGHT_EMPTY"
	GasMaskEmpty       = "STATUS_GASMASK_EMPTY"
	BatteryReplaced    = "STATUS_BATTERY_REPLACED"
	FilterReplaced     = "STATUS_FILTER_REPLACED"
	NoBattery          = "STATUS_NO_BATTERY"
	NoFilter           = "STATUS_NO_FILTER"
	GeigerSearching    = "STATUS_GEIGER_SEARCHING"
	GeigerOff          = "STATUS_GEIGER_OFF"
	GeigerZone         = "STATUS_GEIGER_ZONE"
	GeigerNormal       = "STATUS_GEIGER_NORMAL"
	GPSError           = "STATUS_GPS_ERROR"
	GPSTimeout         = "STATUS_GPS_TIMEOUT"
	GPSStale           = "STATUS_GPS_STALE"
	ExposureReset      = "STATUS_EXPOSURE_RESET"
)

// Level names the catalog entry of a zone level.
func Level(level string) string {
	return "LEVEL_" + strings.ToUpper(level)
}

type plain struct{}

func (plain) Text(key string, args ...any) string {
	if len(args) == 0 {
		return key
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, key)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, " ")
}

// Plain is used when no catalog is configured and in tests.
var Plain plain
