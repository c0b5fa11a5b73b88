package errs

import (
	"errors"
	"testing"
)

func TestPersistence_WrapsAndUnwraps(t *testing.T) {
	t.Parallel()

	if Persistence("save", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}

	backend := errors.New("deadline exceeded")
	err := Persistence("save record", backend)

	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("want *PersistenceError, got %T", err)
	}
	if pe.Op != "save record" {
		t.Fatalf("op mismatch: %q", pe.Op)
	}
	if !errors.Is(err, backend) {
		t.Fatalf("backend error must be reachable via errors.Is")
	}
	if err.Error() != "save record: deadline exceeded" {
		t.Fatalf("message: %q", err.Error())
	}
}
