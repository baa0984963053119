package proto

// DisplayParams describes the server's current output geometry and timing,
// carried on Attached and SessionParametersChanged (spec §3, §4.F).
type DisplayParams struct {
	Width          uint32
	Height         uint32
	RefreshRateMHz uint32 // milli-hertz, avoids a float field on the wire
}

func (d *DisplayParams) marshal(w *fieldWriter) {
	w.WriteVarint(uint64(d.Width))
	w.WriteVarint(uint64(d.Height))
	w.WriteVarint(uint64(d.RefreshRateMHz))
}

func (d *DisplayParams) unmarshal(r *fieldReader) error {
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	d.Width = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	d.Height = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	d.RefreshRateMHz = uint32(v)
	return nil
}

// FECMetadata is the optional forward-error-correction envelope attached to
// a media chunk (spec §3 "FEC metadata"). Its presence is signalled by the
// chunk's HasFEC flag, not by the Scheme value; a zero Scheme is a valid
// scheme number.
type FECMetadata struct {
	Scheme       uint32
	FecOTI       []byte
	FecPayloadID []byte
}

func (f *FECMetadata) marshal(w *fieldWriter) {
	w.WriteVarint(uint64(f.Scheme))
	w.WriteBytes(f.FecOTI)
	w.WriteBytes(f.FecPayloadID)
}

func (f *FECMetadata) unmarshal(r *fieldReader) error {
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	f.Scheme = uint32(v)
	if f.FecOTI, err = r.ReadBytes(); err != nil {
		return err
	}
	if f.FecPayloadID, err = r.ReadBytes(); err != nil {
		return err
	}
	return nil
}

// Application describes one launchable application entry (supplemented
// feature, §3 of SPEC_FULL.md: recovered from original_source's application
// catalog, dropped by the spec.md distillation but required by
// ListApplications/ApplicationList and FetchApplicationImage).
type Application struct {
	ApplicationID string
	Name          string
	IconImageID   uint64
}

func (a *Application) marshal(w *fieldWriter) {
	w.WriteString(a.ApplicationID)
	w.WriteString(a.Name)
	w.WriteVarint(a.IconImageID)
}

func (a *Application) unmarshal(r *fieldReader) (err error) {
	if a.ApplicationID, err = r.ReadString(); err != nil {
		return err
	}
	if a.Name, err = r.ReadString(); err != nil {
		return err
	}
	if a.IconImageID, err = r.ReadVarint(); err != nil {
		return err
	}
	return nil
}

// SessionInfo is one entry of a SessionList reply.
type SessionInfo struct {
	SessionID     uint64
	ApplicationID string
}

func (s *SessionInfo) marshal(w *fieldWriter) {
	w.WriteVarint(s.SessionID)
	w.WriteString(s.ApplicationID)
}

func (s *SessionInfo) unmarshal(r *fieldReader) (err error) {
	if s.SessionID, err = r.ReadVarint(); err != nil {
		return err
	}
	if s.ApplicationID, err = r.ReadString(); err != nil {
		return err
	}
	return nil
}

// --- Error ---

// Error carries a server-originated failure, translated client-side into a
// SessionError with Kind ServerError (spec §7).
type Error struct {
	Code uint32
	Text string
}

func (*Error) Type() MessageType { return TypeError }

func (m *Error) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(uint64(m.Code))
	w.WriteString(m.Text)
	return w.buf
}

func (m *Error) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.Code = uint32(v)
	if m.Text, err = r.ReadString(); err != nil {
		return err
	}
	return nil
}

// --- Application catalog roundtrip ---

type ListApplications struct{}

func (*ListApplications) Type() MessageType          { return TypeListApplications }
func (*ListApplications) marshalBody() []byte        { return nil }
func (*ListApplications) unmarshalBody([]byte) error { return nil }

type ApplicationList struct {
	Applications []Application
}

func (*ApplicationList) Type() MessageType { return TypeApplicationList }

func (m *ApplicationList) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(uint64(len(m.Applications)))
	for i := range m.Applications {
		m.Applications[i].marshal(w)
	}
	return w.buf
}

func (m *ApplicationList) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	n, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.Applications = make([]Application, n)
	for i := range m.Applications {
		if err := m.Applications[i].unmarshal(r); err != nil {
			return err
		}
	}
	return nil
}

// --- Session lifecycle roundtrips ---

type LaunchSession struct {
	ApplicationID string
}

func (*LaunchSession) Type() MessageType { return TypeLaunchSession }

func (m *LaunchSession) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteString(m.ApplicationID)
	return w.buf
}

func (m *LaunchSession) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	m.ApplicationID, err = r.ReadString()
	return err
}

type SessionLaunched struct {
	SessionID uint64
}

func (*SessionLaunched) Type() MessageType { return TypeSessionLaunched }

func (m *SessionLaunched) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(m.SessionID)
	return w.buf
}

func (m *SessionLaunched) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	m.SessionID, err = r.ReadVarint()
	return err
}

type UpdateSession struct {
	SessionID uint64
	Display   DisplayParams
}

func (*UpdateSession) Type() MessageType { return TypeUpdateSession }

func (m *UpdateSession) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(m.SessionID)
	m.Display.marshal(w)
	return w.buf
}

func (m *UpdateSession) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	if m.SessionID, err = r.ReadVarint(); err != nil {
		return err
	}
	return m.Display.unmarshal(r)
}

type SessionUpdated struct {
	SessionID uint64
}

func (*SessionUpdated) Type() MessageType { return TypeSessionUpdated }

func (m *SessionUpdated) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(m.SessionID)
	return w.buf
}

func (m *SessionUpdated) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	m.SessionID, err = r.ReadVarint()
	return err
}

type ListSessions struct{}

func (*ListSessions) Type() MessageType        { return TypeListSessions }
func (*ListSessions) marshalBody() []byte      { return nil }
func (*ListSessions) unmarshalBody([]byte) error { return nil }

type SessionList struct {
	Sessions []SessionInfo
}

func (*SessionList) Type() MessageType { return TypeSessionList }

func (m *SessionList) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(uint64(len(m.Sessions)))
	for i := range m.Sessions {
		m.Sessions[i].marshal(w)
	}
	return w.buf
}

func (m *SessionList) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	n, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.Sessions = make([]SessionInfo, n)
	for i := range m.Sessions {
		if err := m.Sessions[i].unmarshal(r); err != nil {
			return err
		}
	}
	return nil
}

type EndSession struct {
	SessionID uint64
}

func (*EndSession) Type() MessageType { return TypeEndSession }

func (m *EndSession) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(m.SessionID)
	return w.buf
}

func (m *EndSession) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	m.SessionID, err = r.ReadVarint()
	return err
}

type SessionEnded struct {
	SessionID uint64
}

func (*SessionEnded) Type() MessageType { return TypeSessionEnded }

func (m *SessionEnded) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(m.SessionID)
	return w.buf
}

func (m *SessionEnded) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	m.SessionID, err = r.ReadVarint()
	return err
}

// --- Attachment stream setup/control ---

type Attach struct {
	SessionID    uint64
	VideoCodec   string
	VideoProfile string
	Width        uint32
	Height       uint32
	FramerateMHz uint32
	AudioCodec   string
	SampleRateHz uint32
	Channels     uint32
}

func (*Attach) Type() MessageType { return TypeAttach }

func (m *Attach) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(m.SessionID)
	w.WriteString(m.VideoCodec)
	w.WriteString(m.VideoProfile)
	w.WriteVarint(uint64(m.Width))
	w.WriteVarint(uint64(m.Height))
	w.WriteVarint(uint64(m.FramerateMHz))
	w.WriteString(m.AudioCodec)
	w.WriteVarint(uint64(m.SampleRateHz))
	w.WriteVarint(uint64(m.Channels))
	return w.buf
}

func (m *Attach) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	if m.SessionID, err = r.ReadVarint(); err != nil {
		return err
	}
	if m.VideoCodec, err = r.ReadString(); err != nil {
		return err
	}
	if m.VideoProfile, err = r.ReadString(); err != nil {
		return err
	}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.Width = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.Height = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.FramerateMHz = uint32(v)
	if m.AudioCodec, err = r.ReadString(); err != nil {
		return err
	}
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.SampleRateHz = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.Channels = uint32(v)
	return nil
}

type Attached struct {
	SessionID            uint64
	AttachmentID         uint64
	VideoCodec           string
	VideoProfile         string
	StreamingWidth       uint32
	StreamingHeight      uint32
	AudioCodec           string
	SampleRateHz         uint32
	Channels             uint32
}

func (*Attached) Type() MessageType { return TypeAttached }

func (m *Attached) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(m.SessionID)
	w.WriteVarint(m.AttachmentID)
	w.WriteString(m.VideoCodec)
	w.WriteString(m.VideoProfile)
	w.WriteVarint(uint64(m.StreamingWidth))
	w.WriteVarint(uint64(m.StreamingHeight))
	w.WriteString(m.AudioCodec)
	w.WriteVarint(uint64(m.SampleRateHz))
	w.WriteVarint(uint64(m.Channels))
	return w.buf
}

func (m *Attached) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	if m.SessionID, err = r.ReadVarint(); err != nil {
		return err
	}
	if m.AttachmentID, err = r.ReadVarint(); err != nil {
		return err
	}
	if m.VideoCodec, err = r.ReadString(); err != nil {
		return err
	}
	if m.VideoProfile, err = r.ReadString(); err != nil {
		return err
	}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.StreamingWidth = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.StreamingHeight = uint32(v)
	if m.AudioCodec, err = r.ReadString(); err != nil {
		return err
	}
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.SampleRateHz = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.Channels = uint32(v)
	return nil
}

type KeepAlive struct{}

func (*KeepAlive) Type() MessageType        { return TypeKeepAlive }
func (*KeepAlive) marshalBody() []byte      { return nil }
func (*KeepAlive) unmarshalBody([]byte) error { return nil }

type SessionParametersChanged struct {
	Display          DisplayParams
	ReattachRequired bool
}

func (*SessionParametersChanged) Type() MessageType { return TypeSessionParametersChanged }

func (m *SessionParametersChanged) marshalBody() []byte {
	w := &fieldWriter{}
	m.Display.marshal(w)
	w.WriteBool(m.ReattachRequired)
	return w.buf
}

func (m *SessionParametersChanged) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	if err := m.Display.unmarshal(r); err != nil {
		return err
	}
	var err error
	m.ReattachRequired, err = r.ReadBool()
	return err
}

type Detach struct{}

func (*Detach) Type() MessageType        { return TypeDetach }
func (*Detach) marshalBody() []byte      { return nil }
func (*Detach) unmarshalBody([]byte) error { return nil }

// --- Media chunks ---

// mediaChunk holds the fields common to VideoChunk and AudioChunk (spec §3
// "Media chunk"). VideoChunk adds FrameOptional/HierarchicalLayer.
type mediaChunk struct {
	SessionID    uint64
	AttachmentID uint64
	StreamSeq    uint64
	Seq          uint64
	Chunk        uint32
	NumChunks    uint32
	Data         []byte
	TimestampUs  uint64
	HasFEC       bool
	FEC          FECMetadata
}

func (m *mediaChunk) marshal(w *fieldWriter) {
	w.WriteVarint(m.SessionID)
	w.WriteVarint(m.AttachmentID)
	w.WriteVarint(m.StreamSeq)
	w.WriteVarint(m.Seq)
	w.WriteVarint(uint64(m.Chunk))
	w.WriteVarint(uint64(m.NumChunks))
	w.WriteBytes(m.Data)
	w.WriteVarint(m.TimestampUs)
	w.WriteBool(m.HasFEC)
	if m.HasFEC {
		m.FEC.marshal(w)
	}
}

func (m *mediaChunk) unmarshal(r *fieldReader) error {
	var err error
	if m.SessionID, err = r.ReadVarint(); err != nil {
		return err
	}
	if m.AttachmentID, err = r.ReadVarint(); err != nil {
		return err
	}
	if m.StreamSeq, err = r.ReadVarint(); err != nil {
		return err
	}
	if m.Seq, err = r.ReadVarint(); err != nil {
		return err
	}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.Chunk = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.NumChunks = uint32(v)
	if m.Data, err = r.ReadBytes(); err != nil {
		return err
	}
	if m.TimestampUs, err = r.ReadVarint(); err != nil {
		return err
	}
	if m.HasFEC, err = r.ReadBool(); err != nil {
		return err
	}
	if m.HasFEC {
		return m.FEC.unmarshal(r)
	}
	return nil
}

type VideoChunk struct {
	mediaChunk
	FrameOptional     bool
	HierarchicalLayer uint32
}

func (*VideoChunk) Type() MessageType { return TypeVideoChunk }

func (m *VideoChunk) marshalBody() []byte {
	w := &fieldWriter{}
	m.mediaChunk.marshal(w)
	w.WriteBool(m.FrameOptional)
	w.WriteVarint(uint64(m.HierarchicalLayer))
	return w.buf
}

func (m *VideoChunk) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	if err := m.mediaChunk.unmarshal(r); err != nil {
		return err
	}
	var err error
	if m.FrameOptional, err = r.ReadBool(); err != nil {
		return err
	}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.HierarchicalLayer = uint32(v)
	return nil
}

type AudioChunk struct {
	mediaChunk
}

func (*AudioChunk) Type() MessageType { return TypeAudioChunk }

func (m *AudioChunk) marshalBody() []byte {
	w := &fieldWriter{}
	m.mediaChunk.marshal(w)
	return w.buf
}

func (m *AudioChunk) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	return m.mediaChunk.unmarshal(r)
}

// --- Input events (client -> server) ---

type KeyboardInput struct {
	KeyCode uint32
	Pressed bool
}

func (*KeyboardInput) Type() MessageType { return TypeKeyboardInput }

func (m *KeyboardInput) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(uint64(m.KeyCode))
	w.WriteBool(m.Pressed)
	return w.buf
}

func (m *KeyboardInput) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.KeyCode = uint32(v)
	m.Pressed, err = r.ReadBool()
	return err
}

type PointerEntered struct{}

func (*PointerEntered) Type() MessageType        { return TypePointerEntered }
func (*PointerEntered) marshalBody() []byte      { return nil }
func (*PointerEntered) unmarshalBody([]byte) error { return nil }

type PointerLeft struct{}

func (*PointerLeft) Type() MessageType        { return TypePointerLeft }
func (*PointerLeft) marshalBody() []byte      { return nil }
func (*PointerLeft) unmarshalBody([]byte) error { return nil }

type PointerMotion struct {
	X, Y float32
}

func (*PointerMotion) Type() MessageType { return TypePointerMotion }

func (m *PointerMotion) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteFloat32(m.X)
	w.WriteFloat32(m.Y)
	return w.buf
}

func (m *PointerMotion) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	if m.X, err = r.ReadFloat32(); err != nil {
		return err
	}
	m.Y, err = r.ReadFloat32()
	return err
}

type PointerInput struct {
	Button  uint32
	Pressed bool
}

func (*PointerInput) Type() MessageType { return TypePointerInput }

func (m *PointerInput) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(uint64(m.Button))
	w.WriteBool(m.Pressed)
	return w.buf
}

func (m *PointerInput) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.Button = uint32(v)
	m.Pressed, err = r.ReadBool()
	return err
}

type PointerScroll struct {
	DeltaX, DeltaY float32
}

func (*PointerScroll) Type() MessageType { return TypePointerScroll }

func (m *PointerScroll) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteFloat32(m.DeltaX)
	w.WriteFloat32(m.DeltaY)
	return w.buf
}

func (m *PointerScroll) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	if m.DeltaX, err = r.ReadFloat32(); err != nil {
		return err
	}
	m.DeltaY, err = r.ReadFloat32()
	return err
}

// --- Cursor / pointer-lock control (server -> client) ---

type UpdateCursor struct {
	ImageID  uint64
	HotspotX uint32
	HotspotY uint32
	Visible  bool
}

func (*UpdateCursor) Type() MessageType { return TypeUpdateCursor }

func (m *UpdateCursor) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(m.ImageID)
	w.WriteVarint(uint64(m.HotspotX))
	w.WriteVarint(uint64(m.HotspotY))
	w.WriteBool(m.Visible)
	return w.buf
}

func (m *UpdateCursor) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	if m.ImageID, err = r.ReadVarint(); err != nil {
		return err
	}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.HotspotX = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.HotspotY = uint32(v)
	m.Visible, err = r.ReadBool()
	return err
}

type LockPointer struct{}

func (*LockPointer) Type() MessageType        { return TypeLockPointer }
func (*LockPointer) marshalBody() []byte      { return nil }
func (*LockPointer) unmarshalBody([]byte) error { return nil }

type ReleasePointer struct{}

func (*ReleasePointer) Type() MessageType        { return TypeReleasePointer }
func (*ReleasePointer) marshalBody() []byte      { return nil }
func (*ReleasePointer) unmarshalBody([]byte) error { return nil }

type RelativePointerMotion struct {
	DX, DY float32
}

func (*RelativePointerMotion) Type() MessageType { return TypeRelativePointerMotion }

func (m *RelativePointerMotion) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteFloat32(m.DX)
	w.WriteFloat32(m.DY)
	return w.buf
}

func (m *RelativePointerMotion) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	if m.DX, err = r.ReadFloat32(); err != nil {
		return err
	}
	m.DY, err = r.ReadFloat32()
	return err
}

// --- Gamepad ---

type GamepadAvailable struct {
	GamepadID uint32
	Name      string
}

func (*GamepadAvailable) Type() MessageType { return TypeGamepadAvailable }

func (m *GamepadAvailable) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(uint64(m.GamepadID))
	w.WriteString(m.Name)
	return w.buf
}

func (m *GamepadAvailable) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.GamepadID = uint32(v)
	m.Name, err = r.ReadString()
	return err
}

type GamepadUnavailable struct {
	GamepadID uint32
}

func (*GamepadUnavailable) Type() MessageType { return TypeGamepadUnavailable }

func (m *GamepadUnavailable) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(uint64(m.GamepadID))
	return w.buf
}

func (m *GamepadUnavailable) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.GamepadID = uint32(v)
	return nil
}

type GamepadMotion struct {
	GamepadID uint32
	Axis      uint32
	Value     float32
}

func (*GamepadMotion) Type() MessageType { return TypeGamepadMotion }

func (m *GamepadMotion) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(uint64(m.GamepadID))
	w.WriteVarint(uint64(m.Axis))
	w.WriteFloat32(m.Value)
	return w.buf
}

func (m *GamepadMotion) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.GamepadID = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.Axis = uint32(v)
	m.Value, err = r.ReadFloat32()
	return err
}

type GamepadInput struct {
	GamepadID uint32
	Button    uint32
	Pressed   bool
}

func (*GamepadInput) Type() MessageType { return TypeGamepadInput }

func (m *GamepadInput) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteVarint(uint64(m.GamepadID))
	w.WriteVarint(uint64(m.Button))
	w.WriteBool(m.Pressed)
	return w.buf
}

func (m *GamepadInput) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	v, err := r.ReadVarint()
	if err != nil {
		return err
	}
	m.GamepadID = uint32(v)
	if v, err = r.ReadVarint(); err != nil {
		return err
	}
	m.Button = uint32(v)
	m.Pressed, err = r.ReadBool()
	return err
}

// --- Supplemented: application icon fetch (SPEC_FULL.md §3) ---

type FetchApplicationImage struct {
	ApplicationID string
}

func (*FetchApplicationImage) Type() MessageType { return TypeFetchApplicationImage }

func (m *FetchApplicationImage) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteString(m.ApplicationID)
	return w.buf
}

func (m *FetchApplicationImage) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	m.ApplicationID, err = r.ReadString()
	return err
}

type ApplicationImage struct {
	ApplicationID string
	Data          []byte
}

func (*ApplicationImage) Type() MessageType { return TypeApplicationImage }

func (m *ApplicationImage) marshalBody() []byte {
	w := &fieldWriter{}
	w.WriteString(m.ApplicationID)
	w.WriteBytes(m.Data)
	return w.buf
}

func (m *ApplicationImage) unmarshalBody(b []byte) error {
	r := &fieldReader{buf: b}
	var err error
	if m.ApplicationID, err = r.ReadString(); err != nil {
		return err
	}
	m.Data, err = r.ReadBytes()
	return err
}
