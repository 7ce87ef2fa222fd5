package window

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies a polled event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventResize
	EventKeyDown
	EventDrag
	EventScroll
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	DX, DY float32
}

// PollEvents drains the SDL queue. Mouse motion with the left button held
// is reported as a drag.
func (w *Window) PollEvents(events []Event) []Event {
	events = events[:0]
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			events = append(events, Event{Type: EventQuit})

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				width, height := w.Size()
				events = append(events, Event{Type: EventResize, Width: width, Height: height})
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				events = append(events, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
			}

		case *sdl.MouseMotionEvent:
			if e.State&sdl.ButtonLMask() != 0 {
				events = append(events, Event{Type: EventDrag, DX: float32(e.XRel), DY: float32(e.YRel)})
			}

		case *sdl.MouseWheelEvent:
			events = append(events, Event{Type: EventScroll, DY: float32(e.Y)})
		}
	}
	return events
}
