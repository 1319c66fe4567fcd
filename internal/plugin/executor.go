// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package plugin

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/storyforge/storyforge/internal/story"
)

// Severity grades console messages and log entries.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Hooks are the collaborator callbacks the executor applies instructions
// through. UpdateDocument and UpdateEntity mutate project state; Message
// and Log only emit. ActiveDocumentID names the document an
// update_document instruction targets.
type Hooks struct {
	UpdateDocument   func(id string, patch story.DocumentPatch)
	UpdateEntity     func(id string, patch story.EntityPatch)
	ActiveDocumentID func() string
	Message          func(text string, severity Severity)
	Log              func(severity Severity, message string)
}

// Executor interprets the instruction list returned by a plugin call and
// applies each instruction to project state.
type Executor struct {
	hooks  Hooks
	logger *slog.Logger
}

// NewExecutor creates an executor over the given collaborator hooks.
// Nil hooks turn the corresponding effect into a no-op.
func NewExecutor(hooks Hooks, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{hooks: hooks, logger: logger}
}

// Result summarizes one executed batch.
type Result struct {
	Applied int
	Skipped int
	Failed  int
}

// Execute applies instructions in order. Each instruction runs in an
// isolated failure scope: a failure is reported naming the instruction
// kind and the detail, and execution continues with the next instruction.
// A malformed instruction never aborts the remainder of the batch.
func (x *Executor) Execute(instructions []Instruction) Result {
	var res Result
	for _, in := range instructions {
		applied, err := x.executeOne(in)
		switch {
		case err != nil:
			res.Failed++
			RecordInstruction(in.Kind(), StatusError)
			x.logger.Error("plugin instruction failed", "kind", in.Kind(), "error", err)
			x.message(fmt.Sprintf("Failed to execute action [%s]: %v", in.Kind(), err), SeverityError)
		case applied:
			res.Applied++
			RecordInstruction(in.Kind(), StatusSuccess)
		default:
			res.Skipped++
			RecordInstruction(in.Kind(), "skipped")
		}
	}
	return res
}

// executeOne applies a single instruction. Panics from collaborator
// callbacks are recovered into errors so one bad payload cannot take down
// the batch.
func (x *Executor) executeOne(in Instruction) (applied bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			applied = false
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch v := in.(type) {
	case UpdateDocument:
		docID := ""
		if x.hooks.ActiveDocumentID != nil {
			docID = x.hooks.ActiveDocumentID()
		}
		if docID == "" || len(v.Payload) == 0 {
			return false, nil
		}
		var patch story.DocumentPatch
		if err := json.Unmarshal(v.Payload, &patch); err != nil {
			return false, fmt.Errorf("decode payload: %w", err)
		}
		if x.hooks.UpdateDocument != nil {
			x.hooks.UpdateDocument(docID, patch)
		}
		return true, nil

	case UpdateEntity:
		if len(v.Payload) == 0 {
			return false, nil
		}
		var patch story.EntityPatch
		if err := json.Unmarshal(v.Payload, &patch); err != nil {
			return false, fmt.Errorf("decode payload: %w", err)
		}
		if patch.ID == "" {
			return false, fmt.Errorf("payload missing entity id")
		}
		if x.hooks.UpdateEntity != nil {
			x.hooks.UpdateEntity(patch.ID, patch)
		}
		return true, nil

	case ShowMessage:
		var msg struct {
			Text string   `json:"text"`
			Type Severity `json:"type"`
		}
		if len(v.Payload) > 0 {
			if err := json.Unmarshal(v.Payload, &msg); err != nil {
				return false, fmt.Errorf("decode payload: %w", err)
			}
		}
		if msg.Text == "" {
			return false, nil
		}
		if msg.Type == "" {
			msg.Type = SeverityInfo
		}
		x.message(msg.Text, msg.Type)
		return true, nil

	case AddLog:
		x.log(SeverityInfo, fmt.Sprintf("[Plugin Log]: %s", string(v.Payload)))
		return true, nil

	case Unrecognized:
		x.logger.Warn("unsupported plugin instruction kind", "kind", v.RawKind)
		x.log(SeverityWarning, fmt.Sprintf("Plugin instruction kind %q is not supported.", v.RawKind))
		return false, nil

	default:
		// The variant set is closed; a new variant must be handled above.
		return false, fmt.Errorf("unhandled instruction variant %T", in)
	}
}

func (x *Executor) message(text string, severity Severity) {
	if x.hooks.Message != nil {
		x.hooks.Message(text, severity)
	}
}

func (x *Executor) log(severity Severity, message string) {
	if x.hooks.Log != nil {
		x.hooks.Log(severity, message)
	}
}
