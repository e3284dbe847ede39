package sentinel

// Error is a string-backed error that can be declared as a const.
//
// Two Error values are equal when their text is equal, so errors.Is matches
// them through any number of %w wrappers without a custom Is method.
type Error string

var _ error = Error("")

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
