package evm

import (
	"fmt"
	"math/big"
	"strings"
)

// Function selectors for the pool and ERC-20 view functions the backtest
// needs. Hardcoded: the ABI surface is fixed and tiny.
const (
	selSlot0            = "0x3850c7bd" // slot0()
	selFeeGrowthGlobal0 = "0xf3058399" // feeGrowthGlobal0X128()
	selFeeGrowthGlobal1 = "0x46141319" // feeGrowthGlobal1X128()
	selTicks            = "0xf30dba93" // ticks(int24)
	selToken0           = "0x0dfe1681" // token0()
	selToken1           = "0xd21220a7" // token1()
	selDecimals         = "0x313ce567" // decimals()
)

const wordHexLen = 64 // one 32-byte ABI word as hex chars

var twoPow256 = new(big.Int).Lsh(big.NewInt(1), 256)

// encodeTicksCall ABI-encodes ticks(int24) for a possibly negative tick:
// the selector followed by the tick sign-extended to a 32-byte word.
func encodeTicksCall(tick int) string {
	word := big.NewInt(int64(tick))
	if word.Sign() < 0 {
		word.Add(word, twoPow256) // two's complement
	}
	return selTicks + fmt.Sprintf("%064x", word)
}

// decodeWords splits eth_call return data into 32-byte words.
func decodeWords(data string) ([]*big.Int, error) {
	hexData := strings.TrimPrefix(data, "0x")
	if len(hexData) == 0 || len(hexData)%wordHexLen != 0 {
		return nil, fmt.Errorf("malformed return data: %d hex chars", len(hexData))
	}

	words := make([]*big.Int, 0, len(hexData)/wordHexLen)
	for i := 0; i < len(hexData); i += wordHexLen {
		w, ok := new(big.Int).SetString(hexData[i:i+wordHexLen], 16)
		if !ok {
			return nil, fmt.Errorf("malformed return word at offset %d", i)
		}
		words = append(words, w)
	}
	return words, nil
}

// decodeAddress extracts the address from a single-word return value.
func decodeAddress(data string) (string, error) {
	words, err := decodeWords(data)
	if err != nil {
		return "", err
	}
	if len(words) != 1 {
		return "", fmt.Errorf("expected 1 return word, got %d", len(words))
	}
	return fmt.Sprintf("0x%040x", words[0]), nil
}

// hexToInt64 parses a JSON-RPC hex quantity ("0x...") into int64.
func hexToInt64(s string) (int64, error) {
	v, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return 0, fmt.Errorf("malformed hex quantity %q", s)
	}
	return v.Int64(), nil
}

// blockParam formats a block number for JSON-RPC, honoring the Latest
// sentinel.
func blockParam(block int64) string {
	if block == Latest {
		return "latest"
	}
	return fmt.Sprintf("0x%x", block)
}
