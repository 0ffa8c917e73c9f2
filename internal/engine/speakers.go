package engine

// speakerSet tracks which users are currently speaking, partitioned into the
// target user and everyone else. It is only ever touched by the engine's
// consume goroutine.
type speakerSet struct {
	users map[string]bool // userID -> isTarget
}

func newSpeakerSet() speakerSet {
	return speakerSet{users: make(map[string]bool)}
}

func (s *speakerSet) add(userID string, isTarget bool) {
	s.users[userID] = isTarget
}

func (s *speakerSet) remove(userID string) {
	delete(s.users, userID)
}

// clear drops all known speakers. Called on connection loss so stale
// presence never survives a dropped session.
func (s *speakerSet) clear() {
	s.users = make(map[string]bool)
}

func (s *speakerSet) targets() int {
	n := 0

	for _, isTarget := range s.users {
		if isTarget {
			n++
		}
	}

	return n
}

func (s *speakerSet) others() int {
	n := 0

	for _, isTarget := range s.users {
		if !isTarget {
			n++
		}
	}

	return n
}
