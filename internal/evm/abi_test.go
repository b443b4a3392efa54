package evm

import (
	"math/big"
	"strings"
	"testing"
)

func TestEncodeTicksCall_Positive(t *testing.T) {
	call := encodeTicksCall(76012)
	if !strings.HasPrefix(call, selTicks) {
		t.Errorf("call %q missing ticks selector", call)
	}
	if len(call) != len(selTicks)+wordHexLen {
		t.Errorf("call length = %d, want selector + one word", len(call))
	}

	word, ok := new(big.Int).SetString(call[len(selTicks):], 16)
	if !ok {
		t.Fatal("argument word is not hex")
	}
	if word.Int64() != 76012 {
		t.Errorf("encoded tick = %v, want 76012", word)
	}
}

func TestEncodeTicksCall_NegativeIsTwosComplement(t *testing.T) {
	call := encodeTicksCall(-887220)

	word, ok := new(big.Int).SetString(call[len(selTicks):], 16)
	if !ok {
		t.Fatal("argument word is not hex")
	}
	// Decode as signed 256-bit.
	if word.Cmp(new(big.Int).Lsh(big.NewInt(1), 255)) >= 0 {
		word.Sub(word, twoPow256)
	}
	if word.Int64() != -887220 {
		t.Errorf("decoded tick = %v, want -887220", word)
	}
	// The sign extension must fill the word, not just the low bytes.
	if !strings.HasPrefix(call[len(selTicks):], "ff") {
		t.Errorf("negative tick word not sign-extended: %s", call)
	}
}

func TestDecodeWords(t *testing.T) {
	data := "0x" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"00000000000000000000000000000000000000000000000000000000000000ff"
	words, err := decodeWords(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0].Int64() != 1 || words[1].Int64() != 255 {
		t.Errorf("words = %v, %v", words[0], words[1])
	}
}

func TestDecodeWords_Malformed(t *testing.T) {
	for _, data := range []string{"0x", "0xabc", "0x" + strings.Repeat("zz", 32)} {
		if _, err := decodeWords(data); err == nil {
			t.Errorf("expected error for %q", data)
		}
	}
}

func TestDecodeAddress(t *testing.T) {
	data := "0x000000000000000000000000a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	addr, err := decodeAddress(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" {
		t.Errorf("address = %s", addr)
	}
}

func TestHexToInt64(t *testing.T) {
	v, err := hexToInt64("0x10")
	if err != nil || v != 16 {
		t.Errorf("hexToInt64(0x10) = %d, %v", v, err)
	}
	if _, err := hexToInt64("0xzz"); err == nil {
		t.Error("expected error for malformed quantity")
	}
}

func TestBlockParam(t *testing.T) {
	if got := blockParam(Latest); got != "latest" {
		t.Errorf("blockParam(Latest) = %q", got)
	}
	if got := blockParam(255); got != "0xff" {
		t.Errorf("blockParam(255) = %q", got)
	}
}
