package models

import "testing"

func TestIsValidSlotTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{SlotStateUnknown, SlotStateUnminted, true},
		{SlotStateUnknown, SlotStateMinted, true},
		{SlotStateUnminted, SlotStateMinted, true},

		// Minted is terminal
		{SlotStateMinted, SlotStateUnminted, false},
		{SlotStateMinted, SlotStateUnknown, false},
		{SlotStateUnminted, SlotStateUnknown, false},
		{"nonexistent", SlotStateMinted, false},
		{SlotStateUnknown, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidSlotTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidSlotTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestNextSlotStateNeverUnmints(t *testing.T) {
	state := SlotStateUnknown
	observations := []bool{false, false, true, false, true, false}
	seenMinted := false

	for i, owned := range observations {
		state = NextSlotState(state, owned)
		if state == SlotStateMinted {
			seenMinted = true
		}
		if seenMinted && state != SlotStateMinted {
			t.Fatalf("observation %d: slot reverted to %q after being minted", i, state)
		}
	}
	if state != SlotStateMinted {
		t.Fatalf("final state = %q", state)
	}
}

func TestNextSlotStateFromUnknown(t *testing.T) {
	if got := NextSlotState(SlotStateUnknown, false); got != SlotStateUnminted {
		t.Errorf("unknown + not owned = %q", got)
	}
	if got := NextSlotState(SlotStateUnknown, true); got != SlotStateMinted {
		t.Errorf("unknown + owned = %q", got)
	}
}

func TestAllSlotStatesHaveTransitionEntry(t *testing.T) {
	for _, s := range []string{SlotStateUnknown, SlotStateUnminted, SlotStateMinted} {
		if _, ok := ValidSlotTransitions[s]; !ok {
			t.Errorf("state %q missing from ValidSlotTransitions map", s)
		}
	}
}

func TestMintModes(t *testing.T) {
	for _, m := range []string{MintModeSingle, MintModeWhitelist, MintModeFree} {
		if !IsValidMintMode(m) {
			t.Errorf("%q should be a valid single-slot mint mode", m)
		}
		if TxKindForMode(m) == "" {
			t.Errorf("%q has no tx kind", m)
		}
	}
	if IsValidMintMode(MintModeMulti) {
		t.Error("multi mint is not a single-slot mode")
	}
	if IsValidMintMode("burn") {
		t.Error("unknown mode accepted")
	}
}
