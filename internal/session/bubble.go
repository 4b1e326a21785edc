package session

import "math"

// Vector3 is a world-space position supplied by the rendering engine.
type Vector3 struct {
	X, Y, Z float64
}

// Vector2 is a 2D coordinate. For Camera.Project it is in normalized
// device coordinates; for bubble positions it is viewport pixels.
type Vector2 struct {
	X, Y float64
}

// Camera abstracts the rendering engine's camera: it projects a world
// position into normalized device coordinates in [-1, 1].
type Camera interface {
	Project(p Vector3) Vector2
}

// Viewport is the on-screen rectangle the 3D view is rendered into.
type Viewport struct {
	Left, Top     float64
	Width, Height float64
}

// BubbleSize is the rendered size of the info bubble, needed to anchor
// its tip at the projected point.
type BubbleSize struct {
	Width, Height float64
}

// projectBubble converts a world position into the top-left pixel
// position of the bubble. The bubble is centered horizontally (nudged
// 4px right) and sits with its tail 10px above the projected point.
func projectBubble(cam Camera, vp Viewport, size BubbleSize, p Vector3) Vector2 {
	ndc := cam.Project(p)
	x := (ndc.X*0.5+0.5)*vp.Width + vp.Left
	y := (-ndc.Y*0.5+0.5)*vp.Height + vp.Top
	return Vector2{
		X: math.Round(x - size.Width/2 + 4),
		Y: math.Round(y - size.Height + 10),
	}
}
