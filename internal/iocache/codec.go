package iocache

import (
	"fmt"

	"github.com/dynbike/dynbike/schema"
	"github.com/vmihailenco/msgpack/v5"
)

// stateBlobVersion is bumped when the encoded SessionState layout changes incompatibly.
const stateBlobVersion = 1

// encodeState serializes a session state for storage.
func encodeState(state *schema.SessionState) ([]byte, error) {
	data, err := msgpack.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session %s: %w", state.ID, err)
	}
	return data, nil
}

// decodeState restores a session state written by encodeState.
func decodeState(data []byte, version int) (*schema.SessionState, error) {
	if version != stateBlobVersion {
		return nil, fmt.Errorf("session blob version %d is not supported (want %d)", version, stateBlobVersion)
	}
	var state schema.SessionState
	if err := msgpack.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &state, nil
}
