package diagram

import "github.com/pkg/errors"

// Threading errors through every step of conflict computation and cell
// surgery would add a ton of noise to the builder. Instead, broken invariants
// panic through fatalf, and the public API recovers them into an error.

type diagramError struct {
	error
}

func fatalf(format string, args ...interface{}) {
	panic(diagramError{errors.Errorf(format, args...)})
}

// HandlePanicRecover converts a panic raised by fatalf into an error. Any
// other panic is re-raised.
func HandlePanicRecover(r interface{}) error {
	if r != nil {
		if err, ok := r.(diagramError); ok {
			return err.error
		}
		panic(r)
	}
	return nil
}
