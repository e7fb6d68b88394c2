// Package plan expands a command category and its slots into ordered steps.
package plan

import "slices"

// ActionType names the kind of work a step performs.
type ActionType string

const (
	PressKey         ActionType = "PRESS_KEY"
	TypeText         ActionType = "TYPE_TEXT"
	Wait             ActionType = "WAIT"
	MouseClick       ActionType = "MOUSE_CLICK"
	MouseRightClick  ActionType = "MOUSE_RIGHTCLICK"
	MouseDoubleClick ActionType = "MOUSE_DOUBLECLICK"
	ScreenAnalysis   ActionType = "SCREEN_ANALYSIS"
	SystemAction     ActionType = "SYSTEM_ACTION"
	OpenApp          ActionType = "OPEN_APP"
	FocusWindow      ActionType = "FOCUS_WINDOW"
	OpenURL          ActionType = "OPEN_URL"
	Conditional      ActionType = "CONDITIONAL"
	Execute          ActionType = "EXECUTE"
)

var actionTypes = []ActionType{
	PressKey, TypeText, Wait, MouseClick, MouseRightClick, MouseDoubleClick,
	ScreenAnalysis, SystemAction, OpenApp, FocusWindow, OpenURL, Conditional, Execute,
}

// Valid reports whether a is a known action type.
func (a ActionType) Valid() bool { return slices.Contains(actionTypes, a) }

// Vision reports whether a needs the screen to be grounded before it can run.
func (a ActionType) Vision() bool {
	switch a {
	case MouseClick, MouseRightClick, MouseDoubleClick, ScreenAnalysis:
		return true
	}
	return false
}

// Step is one action with its parameters. Parameter values are strings or float64.
type Step struct {
	Action      ActionType     `json:"action_type" yaml:"action"`
	Params      map[string]any `json:"parameters" yaml:"params,omitempty"`
	Description string         `json:"description" yaml:"description"`
}

// Plan is an ordered list of concrete steps.
type Plan []Step

// Guard is a conditional tail: its steps are emitted only when Condition
// holds, and a failing guard ends expansion of the whole template.
type Guard struct {
	Condition string `json:"when" yaml:"when"`
	Steps     []Step `json:"steps" yaml:"steps"`
}

// Template is an unconditional prefix followed by guarded suffixes in order.
type Template struct {
	Steps   []Step  `json:"steps" yaml:"steps"`
	Guarded []Guard `json:"guarded,omitempty" yaml:"guarded,omitempty"`
}

// Len returns the number of steps emitted when every guard holds.
func (t Template) Len() int {
	n := len(t.Steps)
	for _, g := range t.Guarded {
		n += len(g.Steps)
	}
	return n
}

// PhaseTwoKey is the template that types and sends a message into an opened chat.
const PhaseTwoKey = "SEND_MESSAGE_PHASE_2"
