package domain

import "strings"

// ServiceType is the top-level transport category. It is fixed at creation.
type ServiceType string

const (
	ServiceSea ServiceType = "sea_freight"
	ServiceAir ServiceType = "air_freight"
)

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	return t == ServiceSea || t == ServiceAir
}

// Backend (stored) mode vocabulary.
const (
	ModeRoRo      = "RoRo"
	ModeContainer = "Container"
	ModeLCL       = "LCL"
	ModeAir       = "Air"
	ModeDocuments = "Documents"
)

// UI mode vocabulary.
const (
	UIModeRoRo       = "roro"
	UIModeFCL        = "fcl"
	UIModeLCL        = "lcl"
	UIModeAirGeneral = "air_general"
	UIModeAirDocs    = "air_docs"
)

var modeLabels = map[string]string{
	UIModeRoRo:       "RoRo",
	UIModeFCL:        "FCL (Container)",
	UIModeLCL:        "LCL",
	UIModeAirGeneral: "Air Freight",
	UIModeAirDocs:    "Secure Documents",
}

// ToUIMode maps a stored mode to the UI vocabulary. Unrecognised sea modes
// become roro; the mapping is lossy on purpose.
func ToUIMode(serviceType ServiceType, backendMode string) string {
	if serviceType == ServiceAir {
		if strings.Contains(strings.ToLower(backendMode), "doc") {
			return UIModeAirDocs
		}
		return UIModeAirGeneral
	}

	switch strings.ToLower(backendMode) {
	case "container":
		return UIModeFCL
	case "lcl":
		return UIModeLCL
	default:
		return UIModeRoRo
	}
}

// ToBackendMode maps a UI mode to the stored vocabulary. Unknown service
// types store "Container".
func ToBackendMode(serviceType ServiceType, uiMode string) string {
	switch serviceType {
	case ServiceSea:
		switch uiMode {
		case UIModeRoRo:
			return ModeRoRo
		case UIModeLCL:
			return ModeLCL
		default:
			return ModeContainer
		}
	case ServiceAir:
		if uiMode == UIModeAirDocs {
			return ModeDocuments
		}
		return ModeAir
	default:
		return ModeContainer
	}
}

// ModeLabel returns the display label of a UI mode.
func ModeLabel(uiMode string) string {
	if l, ok := modeLabels[uiMode]; ok {
		return l
	}
	return Label(uiMode)
}

// ValidBackendMode is the server-side check that mode belongs to serviceType.
func ValidBackendMode(serviceType ServiceType, mode string) bool {
	switch serviceType {
	case ServiceSea:
		return mode == ModeRoRo || mode == ModeContainer || mode == ModeLCL
	case ServiceAir:
		return mode == ModeAir || mode == ModeDocuments
	default:
		return false
	}
}
