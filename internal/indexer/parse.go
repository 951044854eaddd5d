package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"predictionScope/internal/model"
)

// ParseObjectID validates a 0x-prefixed identifier of at most 32 bytes and returns it as
// 0x followed by 64 lowercase hex digits. Empty input fails with ErrConfigurationMissing.
func ParseObjectID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", model.ErrConfigurationMissing
	}
	if !strings.HasPrefix(input, "0x") && !strings.HasPrefix(input, "0X") {
		return "", fmt.Errorf("invalid object id: %s", input)
	}
	digits := input[2:]
	if len(digits) == 0 || len(digits) > 2*common.HashLength {
		return "", fmt.Errorf("invalid object id length: %s", input)
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	data, err := hexutil.Decode("0x" + digits)
	if err != nil {
		return "", fmt.Errorf("invalid object id: %s", input)
	}
	return strings.ToLower(common.BytesToHash(data).Hex()), nil
}

// ParseObjectIDs parses a list of identifiers, skipping blanks.
func ParseObjectIDs(inputs []string) ([]string, error) {
	ids := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input) == "" {
			continue
		}
		id, err := ParseObjectID(input)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
