package packer

import (
	"encoding/json"
	"io"
)

// Codec encodes package payloads. Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(w io.Writer, p Package) error
	Unmarshal(data []byte, p Package) error
}

// JSONCodec encodes payloads as JSON objects.
type JSONCodec struct{}

// Marshal writes p as JSON to w.
func (JSONCodec) Marshal(w io.Writer, p Package) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Unmarshal decodes JSON data into p.
func (JSONCodec) Unmarshal(data []byte, p Package) error {
	return json.Unmarshal(data, p)
}
