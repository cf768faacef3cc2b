package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/stefanpenner/analog/pkg/board"
)

// Codec converts a board snapshot to and from bytes.
type Codec interface {
	Name() string
	Marshal(st board.State) ([]byte, error)
	Unmarshal(data []byte, st *board.State) error
}

var (
	// JSON is the default snapshot format. Decoding checks the document
	// against the embedded snapshot schema before it reaches the struct.
	JSON Codec = jsonCodec{}

	// CBOR is a compact binary format, selected by a .cbor extension.
	CBOR Codec = cborCodec{}
)

// CodecForPath picks the codec from the file extension. Anything that is not
// .cbor is JSON.
func CodecForPath(path string) Codec {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return CBOR
	}
	return JSON
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(st board.State) ([]byte, error) {
	return json.MarshalIndent(st, "", "  ")
}

func (jsonCodec) Unmarshal(data []byte, st *board.State) error {
	if err := validateSnapshotJSON(data); err != nil {
		return err
	}
	return json.Unmarshal(data, st)
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	cborEnc, err = encOptions.EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("store: CBOR decoder initialization failed: " + err.Error())
	}
}

type cborCodec struct{}

func (cborCodec) Name() string { return "cbor" }

func (cborCodec) Marshal(st board.State) ([]byte, error) {
	return cborEnc.Marshal(st)
}

func (cborCodec) Unmarshal(data []byte, st *board.State) error {
	return cborDec.Unmarshal(data, st)
}

// decodeSnapshot runs the codec and then the board's own validation, so a
// snapshot the board cannot hold is reported as unreadable.
func decodeSnapshot(c Codec, data []byte) (board.State, error) {
	var st board.State
	if err := c.Unmarshal(data, &st); err != nil {
		return board.State{}, fmt.Errorf("decoding %s snapshot: %w", c.Name(), err)
	}
	if err := st.Validate(); err != nil {
		return board.State{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	return st, nil
}
