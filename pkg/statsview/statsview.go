// Package statsview serves live runtime statistics (heap, goroutines, GC)
// over HTTP while an emulator runs.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const DefaultAddress = "localhost:12600"
const url = "/debug/statsview"

// Launch starts the stats server in a new goroutine and reports its URL to
// output. It returns a function that stops the server.
func Launch(addr string, output io.Writer) (stop func()) {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	fmt.Fprintf(output, "stats server available at http://%s%s\n", addr, url)
	return mgr.Stop
}
