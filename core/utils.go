package core

import (
	"reflect"

	"github.com/encodeous/lsdb/state"
)

func Get[T state.Module](s *state.State) T {
	t := reflect.TypeFor[T]()
	return s.Modules[t.String()].(T)
}
