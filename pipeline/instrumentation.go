package pipeline

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"dauphin/internal/errkind"
	"dauphin/internal/trace"
	"dauphin/ir"
)

// instrumentation records per-pass timing and instruction counts (spec
// §4.3.4): verbosity >1 logs one line per pass, >2 also dumps the full IR,
// and a profile flag writes each pass's state to a zstd-compressed file —
// the same workload-scoped intermediate-dump shape klauspost/compress's
// zstd package is used for elsewhere in this pack.
type instrumentation struct {
	cfg   Config
	index int
}

func newInstrumentation(cfg Config) *instrumentation {
	return &instrumentation{cfg: cfg}
}

func (in *instrumentation) start(name string, ctx *ir.GenContext) time.Time {
	return time.Now()
}

func (in *instrumentation) finish(name string, ctx *ir.GenContext, started time.Time) {
	elapsed := time.Since(started)
	remaining := ctx.AccountedLen()
	in.index++

	trace.Pass(name, in.index, elapsed.Microseconds(), remaining)

	if in.cfg.Verbose > 1 {
		log.Printf("pass %s: %v elapsed, %d instructions remaining", name, elapsed, remaining)
	}
	if in.cfg.Verbose > 2 {
		for _, instr := range ctx.Instructions {
			log.Printf("  %s %v", instr.Kind, instr.Regs)
		}
	}
	if in.cfg.Profile {
		if err := in.dump(name, ctx); err != nil {
			log.Printf("profile dump for pass %s failed: %v", name, err)
		}
	}
}

func (in *instrumentation) dump(name string, ctx *ir.GenContext) error {
	debugName := in.cfg.DebugName
	if debugName == "" {
		debugName = "program"
	}
	path := fmt.Sprintf("%s-%s-%d.profile", debugName, name, in.index)

	f, err := os.Create(path)
	if err != nil {
		return errkind.With(errkind.OS, err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return errkind.With(errkind.Internal, err)
	}
	defer w.Close()

	for _, instr := range ctx.Instructions {
		fmt.Fprintf(w, "%s %v\n", instr.Kind, instr.Regs)
	}
	return nil
}
