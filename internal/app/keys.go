package app

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/meshspy/internal/viewer"
)

var keyActions = map[sdl.Scancode]viewer.Action{
	sdl.SCANCODE_1:   viewer.ToggleBaseColorMap,
	sdl.SCANCODE_2:   viewer.ToggleMetallicMap,
	sdl.SCANCODE_3:   viewer.ToggleRoughnessMap,
	sdl.SCANCODE_4:   viewer.ToggleNormalMap,
	sdl.SCANCODE_W:   viewer.ToggleWireframe,
	sdl.SCANCODE_A:   viewer.ToggleAutoRotate,
	sdl.SCANCODE_R:   viewer.Reframe,
	sdl.SCANCODE_F12: viewer.Screenshot,
}

// KeyAction maps a key to its viewer action.
func KeyAction(key sdl.Scancode) (viewer.Action, bool) {
	a, ok := keyActions[key]
	return a, ok
}

// MouseButton maps an SDL button to a viewer button.
func MouseButton(b uint8) (viewer.MouseButton, bool) {
	switch b {
	case sdl.BUTTON_LEFT:
		return viewer.ButtonLeft, true
	case sdl.BUTTON_MIDDLE:
		return viewer.ButtonMiddle, true
	case sdl.BUTTON_RIGHT:
		return viewer.ButtonRight, true
	}
	return 0, false
}
