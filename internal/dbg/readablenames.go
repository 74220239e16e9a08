// Package dbg holds helpers for poking at diagrams while debugging.
package dbg

import (
	"fmt"
	"reflect"
	"strings"

	petname "github.com/dustinkirkland/golang-petname"
)

// Name turns a pointer into a readable name such as "BriskOtter", so that
// sites are easy to tell apart in dumps and snapshots. Names are handed out
// lazily and never forgotten, which only costs memory when debugging.

var memo = map[interface{}]string{}

func init() {
	// Names depend on the order of demand, so they are deliberately different
	// between runs: the same name does not mean the same site next time.
	petname.NonDeterministicMode()
}

func Name(obj interface{}) string {
	if obj == nil || reflect.ValueOf(obj).Kind() == reflect.Ptr && reflect.ValueOf(obj).IsNil() {
		return "Ø"
	}
	if name, ok := memo[obj]; ok {
		return name
	}
	name := fmt.Sprintf("%s%s", strings.Title(petname.Adjective()), strings.Title(petname.Name()))
	memo[obj] = name
	return name
}
