package state

import "encoding/json"

// LoadState is the phase of the load attempts tracked under one key.
//
// While Loading is true exactly one of Activating and Reloading is true,
// except in the Default record. Activated never goes back to false. Failed is
// set only when the latest settled attempt failed.
type LoadState struct {
	Activating bool  // first attempt for the key is in flight
	Activated  bool  // at least one attempt has succeeded
	Loading    bool  // an attempt is in flight
	Reloading  bool  // an attempt is in flight and an earlier one completed
	Loaded     bool  // the latest attempt succeeded
	Failed     error // error of the latest attempt, if it failed
}

// Default returns the record a key holds before any attempt is attached. It
// is optimistically loading; Start overwrites it.
func Default() LoadState {
	return LoadState{Loading: true}
}

type loadStateJSON struct {
	Activating bool    `json:"activating"`
	Activated  bool    `json:"activated"`
	Loading    bool    `json:"loading"`
	Reloading  bool    `json:"reloading"`
	Loaded     bool    `json:"loaded"`
	Failed     *string `json:"failed"`
}

// MarshalJSON renders Failed as its message, or null.
func (s LoadState) MarshalJSON() ([]byte, error) {
	out := loadStateJSON{
		Activating: s.Activating,
		Activated:  s.Activated,
		Loading:    s.Loading,
		Reloading:  s.Reloading,
		Loaded:     s.Loaded,
	}
	if s.Failed != nil {
		msg := s.Failed.Error()
		out.Failed = &msg
	}
	return json.Marshal(out)
}

// Patch updates fields of a record in place. Patches are applied in order,
// so a later patch wins over an earlier one on the same field.
type Patch func(*LoadState)

// Start marks an attempt as in flight. Activating is true unless the key was
// already activated, in which case Reloading is. Loaded is cleared. Failed is
// cleared only when clearFailed is set; otherwise the previous error stays
// visible until the attempt settles.
func Start(clearFailed bool) Patch {
	return func(s *LoadState) {
		s.Activating = !s.Activated
		s.Reloading = s.Activated
		s.Loading = true
		s.Loaded = false
		if clearFailed {
			s.Failed = nil
		}
	}
}

// Succeed marks the latest attempt as successful.
func Succeed() Patch {
	return func(s *LoadState) {
		s.Activating = false
		s.Activated = true
		s.Loading = false
		s.Reloading = false
		s.Loaded = true
		s.Failed = nil
	}
}

// Fail marks the latest attempt as failed with err. Activated is left as it
// was: a failed first attempt does not activate the key.
func Fail(err error) Patch {
	return func(s *LoadState) {
		s.Activating = false
		s.Loading = false
		s.Reloading = false
		s.Loaded = false
		s.Failed = err
	}
}
