package membarrier

import "testing"

func TestNewReturnsUsableSyncer(t *testing.T) {
	s := New()
	defer s.Close()
	// Sync must be safe to call repeatedly regardless of platform.
	s.Sync()
	s.Sync()
}

func TestExpeditedIsConsistentWithNew(t *testing.T) {
	// Expedited() is informational metadata; it must not panic and must
	// agree with whether New() was compiled with a real barrier: a build
	// without one always gets the no-op fallback.
	if !Expedited() {
		s := New()
		defer s.Close()
		if _, ok := s.(noopSyncer); !ok {
			t.Fatalf("Expedited() = false but New() returned %T, want noopSyncer", s)
		}
	}
}
