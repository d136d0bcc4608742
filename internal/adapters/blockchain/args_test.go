package blockchain

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constructorInputs(t *testing.T, inputs string) abi.Arguments {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(`[{"type":"constructor","inputs":` + inputs + `}]`))
	require.NoError(t, err)
	return parsed.Constructor.Inputs
}

func TestConvertArgs(t *testing.T) {
	inputs := constructorInputs(t, `[
		{"name":"owner","type":"address"},
		{"name":"name","type":"string"},
		{"name":"fee","type":"uint256"},
		{"name":"decimals","type":"uint8"},
		{"name":"offset","type":"int64"},
		{"name":"enabled","type":"bool"},
		{"name":"salt","type":"bytes32"},
		{"name":"data","type":"bytes"},
		{"name":"admins","type":"address[]"},
		{"name":"limits","type":"uint256[2]"}
	]`)

	salt := "0x" + strings.Repeat("ab", 32)
	args := []any{
		"0x1111111111111111111111111111111111111111",
		"Astar Domains",
		"1000000000000000000",
		"18",
		"-5",
		"true",
		salt,
		"0xdeadbeef",
		`["0x2222222222222222222222222222222222222222","0x3333333333333333333333333333333333333333"]`,
		`[1, "0x10"]`,
	}

	converted, err := ConvertArgs(inputs, args)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), converted[0])
	assert.Equal(t, "Astar Domains", converted[1])
	fee, _ := new(big.Int).SetString("1000000000000000000", 10)
	assert.Equal(t, fee, converted[2])
	assert.Equal(t, uint8(18), converted[3])
	assert.Equal(t, int64(-5), converted[4])
	assert.Equal(t, true, converted[5])
	assert.Equal(t, common.HexToHash(salt), common.Hash(converted[6].([32]byte)))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, converted[7])
	assert.Equal(t, []common.Address{
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
		common.HexToAddress("0x3333333333333333333333333333333333333333"),
	}, converted[8])
	assert.Equal(t, [2]*big.Int{big.NewInt(1), big.NewInt(16)}, converted[9])

	// The converted values must be packable
	_, err = inputs.Pack(converted...)
	require.NoError(t, err)
}

func TestConvertArgs_TypedValuesPassThrough(t *testing.T) {
	inputs := constructorInputs(t, `[{"name":"fee","type":"uint256"}]`)

	converted, err := ConvertArgs(inputs, []any{big.NewInt(7)})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), converted[0])
}

func TestConvertArgs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		inputs  string
		args    []any
		wantErr string
	}{
		{"argument count", `[{"name":"owner","type":"address"}]`, nil, "expects 1 arguments, got 0"},
		{"bad address", `[{"name":"owner","type":"address"}]`, []any{"0x1234"}, "invalid address"},
		{"uint overflow", `[{"name":"d","type":"uint8"}]`, []any{"256"}, "overflows uint8"},
		{"negative uint", `[{"name":"fee","type":"uint256"}]`, []any{"-1"}, "negative value"},
		{"int overflow", `[{"name":"o","type":"int8"}]`, []any{"128"}, "overflows int8"},
		{"not a number", `[{"name":"fee","type":"uint256"}]`, []any{"lots"}, "invalid integer"},
		{"short fixed bytes", `[{"name":"salt","type":"bytes32"}]`, []any{"0xabcd"}, "expected 32 bytes"},
		{"array length", `[{"name":"l","type":"uint256[2]"}]`, []any{`[1]`}, "expected 2 elements"},
		{"not an array", `[{"name":"l","type":"address[]"}]`, []any{"0x1111111111111111111111111111111111111111"}, "expected a JSON array"},
		{"unnamed argument", `[{"name":"","type":"bool"}]`, []any{"maybe"}, "argument #0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConvertArgs(constructorInputs(t, tt.inputs), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
