package hotkey

// Fake is a test double that lets tests simulate key presses.
type Fake struct {
	keydown chan struct{}
	keyup   chan struct{}

	// RegisterErr, if set, is returned by Register.
	RegisterErr error
}

// NewFake creates a Fake hotkey.
func NewFake() *Fake {
	return &Fake{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (f *Fake) Register() error { return f.RegisterErr }

func (f *Fake) Unregister() {}

func (f *Fake) Keydown() <-chan struct{} { return f.keydown }

func (f *Fake) Keyup() <-chan struct{} { return f.keyup }

// SimKeydown simulates a key press (or an OS key-repeat callback).
func (f *Fake) SimKeydown() { f.keydown <- struct{}{} }

// SimKeyup simulates a key release.
func (f *Fake) SimKeyup() { f.keyup <- struct{}{} }
