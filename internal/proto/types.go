// Package proto implements the wire codec (spec §4.A): length-prefixed,
// type-tagged protocol messages carrying requests, responses, media chunks,
// and control, equivalent in capability to protobuf proto3 (spec §6) but
// with a schema private to this codec, since no external schema file
// accompanies the specification.
package proto

// MessageType is the numeric discriminant fixed by spec §6, supplemented
// per SPEC_FULL.md §3 with FetchApplicationImage/ApplicationImage.
type MessageType uint32

const (
	TypeError MessageType = 1

	TypeListApplications MessageType = 11
	TypeApplicationList  MessageType = 12
	TypeLaunchSession     MessageType = 13
	TypeSessionLaunched   MessageType = 14
	TypeUpdateSession     MessageType = 15
	TypeSessionUpdated    MessageType = 16
	TypeListSessions      MessageType = 17
	TypeSessionList       MessageType = 18
	TypeEndSession        MessageType = 19
	TypeSessionEnded      MessageType = 20

	TypeAttach                    MessageType = 30
	TypeAttached                  MessageType = 31
	TypeKeepAlive                 MessageType = 32
	TypeSessionParametersChanged  MessageType = 33
	TypeDetach                    MessageType = 35

	TypeVideoChunk MessageType = 51
	TypeAudioChunk MessageType = 56

	TypeKeyboardInput         MessageType = 60
	TypePointerEntered        MessageType = 61
	TypePointerLeft           MessageType = 62
	TypePointerMotion         MessageType = 63
	TypePointerInput          MessageType = 64
	TypePointerScroll         MessageType = 65
	TypeUpdateCursor          MessageType = 66
	TypeLockPointer           MessageType = 67
	TypeReleasePointer        MessageType = 68
	TypeRelativePointerMotion MessageType = 69
	TypeGamepadAvailable      MessageType = 70
	TypeGamepadUnavailable    MessageType = 71
	TypeGamepadMotion         MessageType = 72
	TypeGamepadInput          MessageType = 73

	// Supplemented per SPEC_FULL.md §3 (present in original_source/
	// mm-protocol/src/lib.rs, dropped by the spec.md distillation).
	TypeFetchApplicationImage MessageType = 111
	TypeApplicationImage      MessageType = 112
)

func (t MessageType) String() string {
	switch t {
	case TypeError:
		return "Error"
	case TypeListApplications:
		return "ListApplications"
	case TypeApplicationList:
		return "ApplicationList"
	case TypeLaunchSession:
		return "LaunchSession"
	case TypeSessionLaunched:
		return "SessionLaunched"
	case TypeUpdateSession:
		return "UpdateSession"
	case TypeSessionUpdated:
		return "SessionUpdated"
	case TypeListSessions:
		return "ListSessions"
	case TypeSessionList:
		return "SessionList"
	case TypeEndSession:
		return "EndSession"
	case TypeSessionEnded:
		return "SessionEnded"
	case TypeAttach:
		return "Attach"
	case TypeAttached:
		return "Attached"
	case TypeKeepAlive:
		return "KeepAlive"
	case TypeSessionParametersChanged:
		return "SessionParametersChanged"
	case TypeDetach:
		return "Detach"
	case TypeVideoChunk:
		return "VideoChunk"
	case TypeAudioChunk:
		return "AudioChunk"
	case TypeKeyboardInput:
		return "KeyboardInput"
	case TypePointerEntered:
		return "PointerEntered"
	case TypePointerLeft:
		return "PointerLeft"
	case TypePointerMotion:
		return "PointerMotion"
	case TypePointerInput:
		return "PointerInput"
	case TypePointerScroll:
		return "PointerScroll"
	case TypeUpdateCursor:
		return "UpdateCursor"
	case TypeLockPointer:
		return "LockPointer"
	case TypeReleasePointer:
		return "ReleasePointer"
	case TypeRelativePointerMotion:
		return "RelativePointerMotion"
	case TypeGamepadAvailable:
		return "GamepadAvailable"
	case TypeGamepadUnavailable:
		return "GamepadUnavailable"
	case TypeGamepadMotion:
		return "GamepadMotion"
	case TypeGamepadInput:
		return "GamepadInput"
	case TypeFetchApplicationImage:
		return "FetchApplicationImage"
	case TypeApplicationImage:
		return "ApplicationImage"
	default:
		return "Unknown"
	}
}

// ErrorCode is the value carried in an Error message's Code field,
// distinguishing application-level failure reasons from the
// transport/wire-level errors in package errors (spec §6 error taxonomy).
type ErrorCode uint32

const (
	ErrCodeProtocol                     ErrorCode = 1
	ErrCodeProtocolUnexpectedMessage    ErrorCode = 2
	ErrCodeServer                       ErrorCode = 3
	ErrCodeApplicationNotFound          ErrorCode = 10
	ErrCodeSessionNotFound              ErrorCode = 11
	ErrCodeSessionLaunchFailed          ErrorCode = 12
	ErrCodeSessionParamsNotSupported    ErrorCode = 13
	ErrCodeAttachmentParamsNotSupported ErrorCode = 14
)

// Message is implemented by every protocol variant in the registry.
// marshalBody/unmarshalBody are unexported: callers outside this package
// build and read the exported structs directly and drive (de)serialization
// only through EncodeMessage/DecodeMessage.
type Message interface {
	Type() MessageType
	marshalBody() []byte
	unmarshalBody([]byte) error
}

// registry maps a known MessageType to a zero-value constructor, used by
// DecodeMessage to allocate the right concrete type before unmarshaling.
var registry = map[MessageType]func() Message{
	TypeError:                    func() Message { return &Error{} },
	TypeListApplications:         func() Message { return &ListApplications{} },
	TypeApplicationList:          func() Message { return &ApplicationList{} },
	TypeLaunchSession:            func() Message { return &LaunchSession{} },
	TypeSessionLaunched:          func() Message { return &SessionLaunched{} },
	TypeUpdateSession:            func() Message { return &UpdateSession{} },
	TypeSessionUpdated:           func() Message { return &SessionUpdated{} },
	TypeListSessions:             func() Message { return &ListSessions{} },
	TypeSessionList:              func() Message { return &SessionList{} },
	TypeEndSession:               func() Message { return &EndSession{} },
	TypeSessionEnded:             func() Message { return &SessionEnded{} },
	TypeAttach:                   func() Message { return &Attach{} },
	TypeAttached:                 func() Message { return &Attached{} },
	TypeKeepAlive:                func() Message { return &KeepAlive{} },
	TypeSessionParametersChanged: func() Message { return &SessionParametersChanged{} },
	TypeDetach:                   func() Message { return &Detach{} },
	TypeVideoChunk:               func() Message { return &VideoChunk{} },
	TypeAudioChunk:               func() Message { return &AudioChunk{} },
	TypeKeyboardInput:            func() Message { return &KeyboardInput{} },
	TypePointerEntered:           func() Message { return &PointerEntered{} },
	TypePointerLeft:              func() Message { return &PointerLeft{} },
	TypePointerMotion:            func() Message { return &PointerMotion{} },
	TypePointerInput:             func() Message { return &PointerInput{} },
	TypePointerScroll:            func() Message { return &PointerScroll{} },
	TypeUpdateCursor:             func() Message { return &UpdateCursor{} },
	TypeLockPointer:              func() Message { return &LockPointer{} },
	TypeReleasePointer:           func() Message { return &ReleasePointer{} },
	TypeRelativePointerMotion:    func() Message { return &RelativePointerMotion{} },
	TypeGamepadAvailable:         func() Message { return &GamepadAvailable{} },
	TypeGamepadUnavailable:       func() Message { return &GamepadUnavailable{} },
	TypeGamepadMotion:            func() Message { return &GamepadMotion{} },
	TypeGamepadInput:             func() Message { return &GamepadInput{} },
	TypeFetchApplicationImage:    func() Message { return &FetchApplicationImage{} },
	TypeApplicationImage:         func() Message { return &ApplicationImage{} },
}
