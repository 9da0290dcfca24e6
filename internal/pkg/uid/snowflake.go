package uid

import (
	"crypto/rand"
	"encoding/binary"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered int64 IDs.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator whose node number comes from SNOWFLAKE_NODE
// when set, otherwise from a random value in the valid node range.
func NewSnowflake() (*Snowflake, error) {
	nodeID, err := snowflakeNodeID()
	if err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns the next ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func snowflakeNodeID() (int64, error) {
	maxNode := int64(-1 ^ (-1 << snowflake.NodeBits))

	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return n & maxNode, nil
	}

	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}

	return int64(binary.BigEndian.Uint16(b[:])) & maxNode, nil
}
