package camera

import (
	"fmt"
	"sort"
	"strings"
)

// Remote sensor settings. These are not owned by the core: they are sent
// to the device with a direct control request and the camera applies them
// to subsequent frames. The stream usually drops when the frame size
// changes, which the Supervisor handles like any other disconnect.

// Framesize codes understood by the ESP32-CAM control endpoint.
// Only the profiles that are stable on OV2640 sensors are listed.
const (
	FramesizeQVGA = 3  // 320x240
	FramesizeVGA  = 5  // 640x480
	FramesizeSVGA = 10 // 800x600
	FramesizeXGA  = 11 // 1024x768
)

var framesizeNames = map[string]int{
	"qvga": FramesizeQVGA,
	"vga":  FramesizeVGA,
	"svga": FramesizeSVGA,
	"xga":  FramesizeXGA,
}

// ParseFramesize resolves a preset name ("vga") or a raw numeric code.
func ParseFramesize(s string) (int, error) {
	if code, ok := framesizeNames[strings.ToLower(s)]; ok {
		return code, nil
	}
	var code int
	if _, err := fmt.Sscanf(s, "%d", &code); err == nil && code >= 0 && code <= 13 {
		return code, nil
	}
	return 0, fmt.Errorf("camera: unknown framesize %q (want %s or a code 0-13)", s, strings.Join(FramesizeNames(), "/"))
}

// FramesizeNames returns the known preset names, sorted.
func FramesizeNames() []string {
	names := make([]string, 0, len(framesizeNames))
	for name := range framesizeNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JPEG quality bounds accepted by the sensor. Lower is better quality.
const (
	QualityMin = 10
	QualityMax = 63
)

// ClampQuality forces v into the sensor's accepted range.
func ClampQuality(v int) int {
	if v < QualityMin {
		return QualityMin
	}
	if v > QualityMax {
		return QualityMax
	}
	return v
}
