package models

// ClientKind distinguishes the two client implementations that can share one
// physical machine. The device identity is persisted per kind so a desktop
// client and a browser client never collide on the same id.
type ClientKind string

const (
	ClientDesktop ClientKind = "desktop"
	ClientBrowser ClientKind = "browser"
)

// DeviceIdentity is the random identifier a client generates on first run
// and presents on every push, pull and realtime connect. The server uses it
// to exclude the origin device from fan-out (no echo).
type DeviceIdentity struct {
	ID   string     `json:"deviceId"`
	Kind ClientKind `json:"clientKind"`
}
