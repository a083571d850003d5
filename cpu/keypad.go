package cpu

const (
	KEY_COUNT = 16 // Hex keypad 0-F
)

// Keypad is the state of the sixteen hex keys. It is owned by the
// input side of a frontend; the cpu only reads it.
type Keypad struct {
	Keys [KEY_COUNT]bool
}

// Press marks a key as down.
func (kp *Keypad) Press(key int) {
	kp.Set(key, true)
}

// Release marks a key as up.
func (kp *Keypad) Release(key int) {
	kp.Set(key, false)
}

// Set the state of a key. Out of range keys are ignored.
func (kp *Keypad) Set(key int, down bool) {
	if key < 0 || key >= KEY_COUNT {
		return
	}
	kp.Keys[key] = down
}

// Pressed returns true if the key is down.
func (kp *Keypad) Pressed(key int) bool {
	if kp == nil || key < 0 || key >= KEY_COUNT {
		return false
	}
	return kp.Keys[key]
}

// First returns the lowest numbered key that is down.
func (kp *Keypad) First() (key int, ok bool) {
	if kp == nil {
		return
	}
	for key, down := range kp.Keys {
		if down {
			return key, true
		}
	}
	return
}

// Reset releases all keys.
func (kp *Keypad) Reset() {
	clear(kp.Keys[:])
}
