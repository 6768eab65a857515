package component

import "fmt"

// ValidationError is a non-fatal problem found in a tree. Field is qualified
// with the child path, e.g. "children[1].size.width".
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type ValidateOptions struct {
	// AllowZeroSize accepts width and height of 0. Only the import path for
	// externally generated trees sets it; negative sizes are still rejected.
	AllowZeroSize bool
}

// Validate checks n and all descendants and returns every problem found.
func Validate(n Node) []ValidationError {
	return ValidateWith(n, ValidateOptions{})
}

func ValidateWith(n Node, opts ValidateOptions) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	Walk(n, func(node Node, path string) bool {
		add := func(field, msg string) {
			errs = append(errs, ValidationError{Field: path + field, Message: msg})
		}

		switch {
		case node.ID == "":
			add("id", "id is required")
		case seen[node.ID]:
			add("id", fmt.Sprintf("duplicate id %q", node.ID))
		default:
			seen[node.ID] = true
		}

		switch {
		case node.Type == "":
			add("type", "type is required")
		case !node.Type.Valid():
			add("type", fmt.Sprintf("unknown component type %q", node.Type))
		}

		if node.Position.X < 0 {
			add("position.x", "must be >= 0")
		}
		if node.Position.Y < 0 {
			add("position.y", "must be >= 0")
		}

		if opts.AllowZeroSize {
			if node.Size.Width < 0 {
				add("size.width", "must be >= 0")
			}
			if node.Size.Height < 0 {
				add("size.height", "must be >= 0")
			}
		} else {
			if node.Size.Width <= 0 {
				add("size.width", "must be > 0")
			}
			if node.Size.Height <= 0 {
				add("size.height", "must be > 0")
			}
		}
		return true
	})

	return errs
}
