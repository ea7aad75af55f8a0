package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"gorm.io/gorm"
)

func TestFromDB(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{gorm.ErrRecordNotFound, KindNotFound},
		{fmt.Errorf("find: %w", gorm.ErrRecordNotFound), KindNotFound},
		{gorm.ErrDuplicatedKey, KindConflict},
		{gorm.ErrForeignKeyViolated, KindConflict},
		{errors.New("connection refused"), KindInternal},
		{BusinessRule("ya procesado"), KindBusinessRule},
	}
	for _, tc := range cases {
		got := FromDB(tc.err, "Pedido")
		if KindOf(got) != tc.want {
			t.Fatalf("FromDB(%v): expected kind %d, got %d", tc.err, tc.want, KindOf(got))
		}
	}
	if FromDB(nil, "Pedido") != nil {
		t.Fatalf("nil must stay nil")
	}

	appErr, _ := As(FromDB(gorm.ErrRecordNotFound, "Pedido"))
	if appErr.Message != "Pedido no encontrado" {
		t.Fatalf("unexpected message %q", appErr.Message)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInternal:     http.StatusInternalServerError,
		KindValidation:   http.StatusUnprocessableEntity,
		KindNotFound:     http.StatusNotFound,
		KindBusinessRule: http.StatusBadRequest,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindConflict:     http.StatusConflict,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Fatalf("kind %d: expected %d, got %d", kind, want, got)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("save: %w", Internal("no se pudo guardar", cause))
	if !errors.Is(err, cause) {
		t.Fatalf("cause must be reachable through Unwrap")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatalf("unclassified errors are internal")
	}
}
