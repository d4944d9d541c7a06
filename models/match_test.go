package models

import "testing"

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusShortlisted, StatusRejected, StatusMaybe} {
		if !ValidStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "archived", "PENDING", "shortlist"} {
		if ValidStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestSchedulingAllowed(t *testing.T) {
	m := &MatchResult{Status: StatusRejected}
	if m.SchedulingAllowed() {
		t.Error("rejected match must not allow scheduling")
	}

	for _, s := range []string{StatusPending, StatusShortlisted, StatusMaybe} {
		m.Status = s
		if !m.SchedulingAllowed() {
			t.Errorf("status %q should allow scheduling", s)
		}
	}
}
