// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Instruction kinds understood by the execution engine.
const (
	KindUpdateDocument = "update_document"
	KindUpdateEntity   = "update_entity"
	KindShowMessage    = "show_message"
	KindAddLog         = "add_log"
)

// Instruction is one typed effect returned by a plugin action call.
//
// The wire format is {"type": string, "payload": object}. Decoding splits
// instructions into a closed set of variants; payload contents stay raw so
// a malformed payload fails when the instruction is applied, not before,
// keeping the rest of the batch intact. Kinds outside the known set decode
// to Unrecognized carrying the raw tag.
type Instruction interface {
	// Kind returns the wire tag of the instruction.
	Kind() string
	isInstruction()
}

// UpdateDocument merges payload fields into the active document.
type UpdateDocument struct {
	Payload json.RawMessage
}

// UpdateEntity merges payload fields into the entity named by the
// payload's id field.
type UpdateEntity struct {
	Payload json.RawMessage
}

// ShowMessage emits a user-visible notification.
type ShowMessage struct {
	Payload json.RawMessage
}

// AddLog emits a diagnostic log entry. It never mutates state.
type AddLog struct {
	Payload json.RawMessage
}

// Unrecognized is an instruction whose kind is not supported. It carries
// the raw tag so the engine can report what it skipped.
type Unrecognized struct {
	RawKind string
	Payload json.RawMessage
}

func (UpdateDocument) Kind() string { return KindUpdateDocument }
func (UpdateEntity) Kind() string   { return KindUpdateEntity }
func (ShowMessage) Kind() string    { return KindShowMessage }
func (AddLog) Kind() string         { return KindAddLog }
func (u Unrecognized) Kind() string { return u.RawKind }

func (UpdateDocument) isInstruction() {}
func (UpdateEntity) isInstruction()   {}
func (ShowMessage) isInstruction()    {}
func (AddLog) isInstruction()         {}
func (Unrecognized) isInstruction()   {}

// wireInstruction is the raw wire shape of one instruction.
type wireInstruction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (w wireInstruction) toInstruction() Instruction {
	switch w.Type {
	case KindUpdateDocument:
		return UpdateDocument{Payload: w.Payload}
	case KindUpdateEntity:
		return UpdateEntity{Payload: w.Payload}
	case KindShowMessage:
		return ShowMessage{Payload: w.Payload}
	case KindAddLog:
		return AddLog{Payload: w.Payload}
	default:
		return Unrecognized{RawKind: w.Type, Payload: w.Payload}
	}
}

// DecodeInstructions decodes an action response body. The body is either a
// JSON array of instructions or a single instruction object; a single
// object is normalized to a one-element list. A JSON null decodes to an
// empty list.
func DecodeInstructions(body []byte) ([]Instruction, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var wires []wireInstruction
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &wires); err != nil {
			return nil, fmt.Errorf("decode instruction array: %w", err)
		}
	} else {
		var single wireInstruction
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("decode instruction object: %w", err)
		}
		wires = []wireInstruction{single}
	}

	out := make([]Instruction, len(wires))
	for i, w := range wires {
		out[i] = w.toInstruction()
	}
	return out, nil
}
