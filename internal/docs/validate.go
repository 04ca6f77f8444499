package docs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Structural ceilings. Violating any of them is InputInvalid, never a
// partial accept, and is always checked before storage I/O.
const (
	MaxIDLen              = 64
	MaxTitleLen           = 200
	MaxDescriptionLen     = 2000
	MaxCommentLen         = 5000
	MaxSearchLen          = 200
	MaxSectionContentSize = 50 * 1024
	MaxSectionDepth       = 10
)

func validateID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if len(value) > MaxIDLen {
		return fmt.Errorf("%w: %s too long", ErrInvalidInput, field)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLen)
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, MaxDescriptionLen)
	}
	return nil
}

func validateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > MaxCommentLen {
		return fmt.Errorf("%w: comment exceeds %d characters", ErrInvalidInput, MaxCommentLen)
	}
	return nil
}

// validateSectionContent enforces the serialized size ceiling, well-formed
// JSON, and the nesting depth bound.
func validateSectionContent(content json.RawMessage) error {
	if len(content) == 0 {
		return fmt.Errorf("%w: section content is required", ErrInvalidInput)
	}
	if len(content) > MaxSectionContentSize {
		return fmt.Errorf("%w: section content exceeds %d bytes", ErrInvalidInput, MaxSectionContentSize)
	}
	if !json.Valid(content) {
		return fmt.Errorf("%w: section content is not valid JSON", ErrInvalidInput)
	}
	depth, err := jsonDepth(content)
	if err != nil {
		return fmt.Errorf("%w: section content is not valid JSON", ErrInvalidInput)
	}
	if depth > MaxSectionDepth {
		return fmt.Errorf("%w: section content exceeds %d nesting levels", ErrInvalidInput, MaxSectionDepth)
	}
	return nil
}

// jsonDepth walks the token stream and tracks the deepest open container.
func jsonDepth(content []byte) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	depth, deepest := 0, 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return deepest, nil
		}
		if err != nil {
			return 0, err
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
				if depth > deepest {
					deepest = depth
				}
			case '}', ']':
				depth--
			}
		}
	}
}
