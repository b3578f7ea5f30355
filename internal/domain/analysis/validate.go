package analysis

import "strings"

// Validate checks the input before anything touches the network.
// The file is checked first, so a request missing both reports ErrMissingFile.
func Validate(file *Dataset, attribute string) (ValidatedInput, error) {
	if file == nil || (file.Name == "" && len(file.Data) == 0) {
		return ValidatedInput{}, ErrMissingFile
	}
	attr := strings.TrimSpace(attribute)
	if attr == "" {
		return ValidatedInput{}, ErrMissingAttribute
	}
	return ValidatedInput{File: file, Attribute: attr}, nil
}
