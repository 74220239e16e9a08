package dbg

import (
	"os"

	"github.com/kr/pretty"
	imgcat "github.com/martinlindhe/imgcat/lib"
)

// Dump pretty prints any value, field names included.
func Dump(v interface{}) string {
	return pretty.Sprint(v)
}

// ShowPNG prints an image file in the terminal (iTerm only).
func ShowPNG(path string) {
	imgcat.CatFile(path, os.Stdout)
}
