package heuristics

import "testing"

func FuzzMatchDecline(f *testing.F) {
	f.Add("Decline", "Reject call", "com.android.incallui:id/decline")
	f.Add("❌️", "", "")
	f.Add("\xff\xfe", "‍", "a_B-c.d:e/f")

	h := NewDefault()
	f.Fuzz(func(t *testing.T, label, desc, id string) {
		// Must not panic on any input
		h.MatchDecline(label, desc, id)
		h.IsCallScreen(label, id)
	})
}
