package model

import "testing"

func TestWalletContext_NotifiesOnChangeOnly(t *testing.T) {
	wc := NewWalletContext("0xabc", 1)

	calls := 0
	cancel := wc.Subscribe(func(address string, chainID int) { calls++ })

	wc.Set("0xabc", 1)
	if calls != 0 {
		t.Fatalf("unchanged identity should not notify, calls=%d", calls)
	}

	wc.Set("0xabc", 137)
	if calls != 1 {
		t.Fatalf("chain change should notify, calls=%d", calls)
	}

	cancel()
	wc.Set("", 137)
	if calls != 1 {
		t.Fatalf("cancelled subscriber notified, calls=%d", calls)
	}
	if wc.Connected() {
		t.Fatalf("empty address should read as disconnected")
	}
}

func TestBalances_LookupIsCaseInsensitive(t *testing.T) {
	b := NewBalances([]Balance{{Raw: "1", Token: Token{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}}})
	if _, ok := b.Lookup("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"); !ok {
		t.Fatalf("lookup by lower-case address failed")
	}
}
