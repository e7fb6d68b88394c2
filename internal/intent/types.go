package intent

import (
	"errors"
	"slices"
)

// Category is one label of the closed command set the classifier can emit.
type Category string

const (
	OpenApp          Category = "OPEN_APP"
	CloseApp         Category = "CLOSE_APP"
	OpenFileExplorer Category = "OPEN_FILE_EXPLORER"
	SearchFile       Category = "SEARCH_FILE"
	OpenFolder       Category = "OPEN_FOLDER"
	TypeText         Category = "TYPE_TEXT"
	MouseClick       Category = "MOUSE_CLICK"
	MouseRightClick  Category = "MOUSE_RIGHTCLICK"
	MouseDoubleClick Category = "MOUSE_DOUBLECLICK"
	WindowAction     Category = "WINDOW_ACTION"
	System           Category = "SYSTEM"
	Keyboard         Category = "KEYBOARD"
	AppWithAction    Category = "APP_WITH_ACTION"
	MediaControl     Category = "MEDIA_CONTROL"
	SendMessage      Category = "SEND_MESSAGE"
	WebSearch        Category = "WEB_SEARCH"
)

var categories = []Category{
	OpenApp, CloseApp, OpenFileExplorer, SearchFile, OpenFolder, TypeText,
	MouseClick, MouseRightClick, MouseDoubleClick, WindowAction, System,
	Keyboard, AppWithAction, MediaControl, SendMessage, WebSearch,
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return slices.Clone(categories)
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	return slices.Contains(categories, c)
}

func (c Category) String() string { return string(c) }

// Result holds the classified intent of a single command.
type Result struct {
	Input      string   `json:"input"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

var (
	// ErrEmptyCommand indicates the input had no content to classify.
	ErrEmptyCommand = errors.New("empty command")

	// ErrClassificationFailed indicates the model could not produce a usable prediction.
	ErrClassificationFailed = errors.New("classification failed")

	// ErrUnknownCategory indicates training data named a label outside the closed set.
	ErrUnknownCategory = errors.New("unknown category")
)
