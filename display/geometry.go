package display

import (
	"github.com/go-gl/mathgl/mgl32"
)

// AspectRatio returns width/height, or zero for a degenerate height.
func AspectRatio(width, height int) float32 {
	if height <= 0 {
		return 0
	}
	return float32(width) / float32(height)
}

// EstimatedAspectRatio reduces a size to its simplest ratio, e.g. 1920x1080 to 16:9.
func EstimatedAspectRatio(width, height int) mgl32.Vec2 {
	if width <= 0 || height <= 0 {
		return mgl32.Vec2{}
	}
	divisor := gcd(width, height)
	return mgl32.Vec2{float32(width / divisor), float32(height / divisor)}
}

// Viewport returns the viewport covering a full extent as x, y, width, height.
func Viewport(width, height int) mgl32.Vec4 {
	return mgl32.Vec4{0, 0, float32(width), float32(height)}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
