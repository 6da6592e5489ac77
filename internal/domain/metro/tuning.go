package metro

import "time"

const (
	SingleUseMarker  = 'U'
	RadioCodePrefix  = "CO"
	DefaultResetCode = "AZ4658"

	CountdownInterval = time.Second

	DefaultFlashlightSeconds = 40
	DefaultGasMaskSeconds    = 120
	FlashlightRefillSeconds  = 20
	FlashlightDimSeconds     = 10
	GasMaskRefillSeconds     = 120

	GeigerLogLimit = 50
)

type DepletableSpec struct {
	Tool           ToolID
	Resource       ResourceKind
	DefaultSeconds int
	RefillSeconds  int
	DimSeconds     int
	StorageKey     string
}

var Depletables = map[ToolID]DepletableSpec{
	ToolFlashlight: {
		Tool:           ToolFlashlight,
		Resource:       ResourceBattery,
		DefaultSeconds: DefaultFlashlightSeconds,
		RefillSeconds:  FlashlightRefillSeconds,
		DimSeconds:     FlashlightDimSeconds,
		StorageKey:     "flashlightTimeLeft",
	},
	ToolGasMask: {
		Tool:           ToolGasMask,
		Resource:       ResourceFilter,
		DefaultSeconds: DefaultGasMaskSeconds,
		RefillSeconds:  GasMaskRefillSeconds,
		StorageKey:     "gasmaskTimeLeft",
	},
}

var DefaultOverlayGroup = []ToolID{ToolRadio, ToolGeiger}
