package domain

import "errors"

var (
	// Входные данные
	ErrEmptyInput       = errors.New("please upload a document or enter notes")
	ErrUnsupportedMedia = errors.New("unsupported document media type")
	ErrDocumentTooLarge = errors.New("document exceeds size limit")
	ErrDocumentEncoding = errors.New("document encoding failed")

	// Генерация
	ErrGenerationInProgress = errors.New("generation is already in progress")
	ErrStructureGeneration  = errors.New("structure generation failed")
	ErrInvalidStructure     = errors.New("structure response does not match schema")
	ErrImageGeneration      = errors.New("image generation failed")
	ErrEmptyImage           = errors.New("image generator returned empty payload")
	ErrNoVisualPrompt       = errors.New("slide has no visual prompt")

	// Колода и холст
	ErrNoPresentation  = errors.New("no presentation generated yet")
	ErrSlideNotFound   = errors.New("slide not found")
	ErrElementNotFound = errors.New("element not found")
	ErrNoActiveGesture = errors.New("no active gesture")
	ErrGestureConflict = errors.New("another gesture is in progress")
	ErrInvalidViewport = errors.New("invalid viewport")
	ErrInvalidArgument = errors.New("invalid argument")
)
