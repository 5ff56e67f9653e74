// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides AgentRig's binary serialization: CBOR with
// deterministic encoding. Used for on-disk metadata records (the
// asset cache) where the same logical value must always produce
// identical bytes, so content-addressed storage and change detection
// stay stable across processes.
package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer widths, no indefinite-length items.
var encMode cbor.EncMode

// decMode accepts standard CBOR and ignores unknown fields, so old
// binaries can read records written by newer ones.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v as deterministic CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
