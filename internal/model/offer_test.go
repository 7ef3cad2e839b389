package model

import "testing"

func TestParseOfferStatus(t *testing.T) {
	for _, valid := range []string{"pending", "accepted", "rejected", "withdrawn"} {
		if _, err := ParseOfferStatus(valid); err != nil {
			t.Errorf("ParseOfferStatus(%q) = %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "expired", "PENDING", "canceled"} {
		if _, err := ParseOfferStatus(invalid); err == nil {
			t.Errorf("ParseOfferStatus(%q) accepted an unknown status", invalid)
		}
	}
}

func TestParseOfferKind(t *testing.T) {
	for _, valid := range []string{"offer", "counter_offer", "accept"} {
		if _, err := ParseOfferKind(valid); err != nil {
			t.Errorf("ParseOfferKind(%q) = %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "bid", "counteroffer"} {
		if _, err := ParseOfferKind(invalid); err == nil {
			t.Errorf("ParseOfferKind(%q) accepted an unknown kind", invalid)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending reported as terminal")
	}
	for _, s := range []OfferStatus{StatusAccepted, StatusRejected, StatusWithdrawn} {
		if !s.Terminal() {
			t.Errorf("%s not reported as terminal", s)
		}
	}
}
