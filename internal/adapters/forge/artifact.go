package forge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// bytecodeField accepts both the Foundry layout ({"object": "0x..."}) and
// the Hardhat layout (a plain hex string)
type bytecodeField string

func (b *bytecodeField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = bytecodeField(s)
		return nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*b = bytecodeField(obj.Object)
	return nil
}

type artifactFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     bytecodeField   `json:"bytecode"`
	Metadata     json.RawMessage `json:"metadata"`
}

// LoadArtifact reads a Foundry or Hardhat artifact and decodes its
// creation bytecode. Abstract contracts, interfaces and bytecode with
// unlinked library placeholders are rejected.
func LoadArtifact(path, contractName string) (*models.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}

	code := strings.TrimSpace(string(file.Bytecode))
	if code == "" || code == "0x" {
		return nil, fmt.Errorf("artifact %s has no creation bytecode (abstract contract or interface?)", path)
	}
	if strings.Contains(code, "__") {
		return nil, fmt.Errorf("artifact %s has unlinked library references", path)
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}

	bytecode, err := hexutil.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode in %s: %w", path, err)
	}

	rawABI := file.ABI
	if len(bytes.TrimSpace(rawABI)) == 0 || string(rawABI) == "null" {
		rawABI = json.RawMessage("[]")
	}
	parsed, err := abi.JSON(bytes.NewReader(rawABI))
	if err != nil {
		return nil, fmt.Errorf("invalid ABI in %s: %w", path, err)
	}

	name := contractName
	if file.ContractName != "" {
		name = file.ContractName
	}

	return &models.Artifact{
		ContractName:    name,
		Path:            path,
		ABI:             parsed,
		RawABI:          rawABI,
		Bytecode:        bytecode,
		BytecodeHash:    crypto.Keccak256Hash(bytecode).Hex(),
		CompilerVersion: compilerVersion(file.Metadata),
	}, nil
}

// compilerVersion extracts the solc version from Foundry metadata, which
// is an object in recent releases and a JSON string in older ones
func compilerVersion(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var meta struct {
		Compiler struct {
			Version string `json:"version"`
		} `json:"compiler"`
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return ""
	}
	return meta.Compiler.Version
}
