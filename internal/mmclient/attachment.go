package mmclient

import (
	"github.com/mmstream/mm/internal/proto"
	"github.com/mmstream/mm/internal/transport"
)

// Attachment is the outgoing-direction handle for an established
// attachment: sending input and ending it (spec §4.G's public `Attachment`
// handle, as distinct from the inbound-dispatch AttachmentHandle).
type Attachment struct {
	sid      uint64
	ep       *transport.Endpoint
	Attached *proto.Attached
	handle   AttachmentHandle
}

func (a *Attachment) send(msg proto.Message, fin bool) {
	_ = a.ep.SendMessage(a.sid, msg, fin)
}

func (a *Attachment) KeyboardInput(keyCode uint32, pressed bool) {
	a.send(&proto.KeyboardInput{KeyCode: keyCode, Pressed: pressed}, false)
}

func (a *Attachment) PointerEntered() { a.send(&proto.PointerEntered{}, false) }
func (a *Attachment) PointerLeft()    { a.send(&proto.PointerLeft{}, false) }

func (a *Attachment) PointerMotion(x, y float32) {
	a.send(&proto.PointerMotion{X: x, Y: y}, false)
}

func (a *Attachment) RelativePointerMotion(dx, dy float32) {
	a.send(&proto.RelativePointerMotion{DX: dx, DY: dy}, false)
}

func (a *Attachment) PointerInput(button uint32, pressed bool) {
	a.send(&proto.PointerInput{Button: button, Pressed: pressed}, false)
}

func (a *Attachment) PointerScroll(deltaX, deltaY float32) {
	a.send(&proto.PointerScroll{DeltaX: deltaX, DeltaY: deltaY}, false)
}

func (a *Attachment) GamepadAvailable(gamepadID uint32, name string) {
	a.send(&proto.GamepadAvailable{GamepadID: gamepadID, Name: name}, false)
}

func (a *Attachment) GamepadUnavailable(gamepadID uint32) {
	a.send(&proto.GamepadUnavailable{GamepadID: gamepadID}, false)
}

func (a *Attachment) GamepadMotion(gamepadID, axis uint32, value float32) {
	a.send(&proto.GamepadMotion{GamepadID: gamepadID, Axis: axis, Value: value}, false)
}

func (a *Attachment) GamepadInput(gamepadID, button uint32, pressed bool) {
	a.send(&proto.GamepadInput{GamepadID: gamepadID, Button: button, Pressed: pressed}, false)
}

// Detach ends the attachment by sending Detach and closing the write side
// of the stream. It marks the handle as detach-requested first, so the
// HandleClose the reactor fires once the stream actually closes reports
// through no delegate callback rather than AttachmentEnded.
func (a *Attachment) Detach() {
	a.handle.MarkDetachRequested()
	a.send(&proto.Detach{}, true)
}
