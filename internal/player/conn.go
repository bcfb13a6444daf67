package player

// Conn is a player's client connection carrying whole frames.
type Conn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
}
