package irc

import (
	"reflect"
	"testing"
)

func testChannel(t *testing.T) *Channel {
	t.Helper()
	s := newTestSession(t)
	return newChannel(s, "#test")
}

func TestMemberModes(t *testing.T) {
	var m MemberModes
	if m.Operator() || m.Voice() || m.Prefix() != "" {
		t.Error("zero value should hold nothing")
	}
	m |= ModeVoice
	if m.Prefix() != "+" {
		t.Errorf("voice prefix got %q", m.Prefix())
	}
	// Operator and voice coexist; operator wins the display prefix.
	m |= ModeOperator
	if !m.Operator() || !m.Voice() {
		t.Error("operator and voice should both be held")
	}
	if m.Prefix() != "@" {
		t.Errorf("op+voice prefix got %q", m.Prefix())
	}
	m &^= ModeOperator
	if m.Operator() || !m.Voice() {
		t.Error("revoking op should leave voice")
	}
}

func TestChannelMembers(t *testing.T) {
	c := testChannel(t)
	c.addMemberUnlocked("Alice", 0)
	c.addMemberUnlocked("bob", ModeVoice)
	if !c.hasMemberUnlocked("alice") || !c.hasMemberUnlocked("ALICE") {
		t.Error("membership should be case-insensitive")
	}
	// Re-add merges instead of resetting.
	c.addMemberUnlocked("Bob", ModeOperator)
	if m := c.members[c.session.fold("bob")]; !m.modes.Operator() || !m.modes.Voice() {
		t.Errorf("re-add should merge modes, got %v", m.modes)
	}
	if c.removeMemberUnlocked("nobody") {
		t.Error("removing an absent nick should report false")
	}
	if !c.removeMemberUnlocked("ALICE") || c.hasMemberUnlocked("alice") {
		t.Error("remove failed")
	}
}

func TestChannelRename(t *testing.T) {
	c := testChannel(t)
	c.addMemberUnlocked("old", ModeOperator)
	if !c.renameMemberUnlocked("OLD", "fresh") {
		t.Fatal("rename failed")
	}
	if c.hasMemberUnlocked("old") {
		t.Error("old nick should be gone")
	}
	if m := c.members[c.session.fold("fresh")]; !m.modes.Operator() {
		t.Error("modes should survive rename")
	}
}

func TestChannelSetPrefix(t *testing.T) {
	c := testChannel(t)
	c.addMemberUnlocked("x", 0)
	if c.setPrefixUnlocked("ghost", ModeOperator, true) {
		t.Error("absent nick should report false")
	}
	c.setPrefixUnlocked("x", ModeOperator, true)
	c.setPrefixUnlocked("x", ModeVoice, true)
	m := c.members[c.session.fold("x")]
	if !m.modes.Operator() || !m.modes.Voice() {
		t.Error("both capabilities should be held")
	}
	c.setPrefixUnlocked("x", ModeVoice, false)
	m = c.members[c.session.fold("x")]
	if !m.modes.Operator() || m.modes.Voice() {
		t.Error("revoking voice should leave operator")
	}
}

func TestNamesBatchReplaces(t *testing.T) {
	c := testChannel(t)
	c.addMemberUnlocked("stale", ModeOperator)
	c.addMemberUnlocked("kept", 0)

	c.beginNamesBatchUnlocked()
	c.accumulateNamesUnlocked([]string{"@Opper", "+Voicy", "kept"})
	c.accumulateNamesUnlocked([]string{"@+Both", "plain"})
	// The member set is untouched while the batch is open.
	if !c.hasMemberUnlocked("stale") || c.hasMemberUnlocked("Opper") {
		t.Fatal("batch leaked into live member set")
	}
	c.endNamesBatchUnlocked()

	if c.hasMemberUnlocked("stale") {
		t.Error("member absent from the batch should be gone after the swap")
	}
	if m := c.members[c.session.fold("Both")]; !m.modes.Operator() || !m.modes.Voice() {
		t.Error("@+ should yield operator and voice together")
	}
	if m := c.members[c.session.fold("kept")]; m.modes != 0 {
		t.Error("re-listed member modes come from the batch, not history")
	}
}

func TestMembersSorted(t *testing.T) {
	c := testChannel(t)
	c.addMemberUnlocked("zeta", 0)
	c.addMemberUnlocked("Carol", ModeVoice)
	c.addMemberUnlocked("bob", ModeOperator)
	c.addMemberUnlocked("alice", ModeOperator|ModeVoice)
	c.addMemberUnlocked("Dave", 0)

	var got []string
	for _, v := range c.membersUnlocked() {
		got = append(got, v.Nick)
	}
	// Operators first, then voiced, then the rest; alpha within tiers.
	want := []string{"alice", "bob", "Carol", "Dave", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order %v want %v", got, want)
	}
}
