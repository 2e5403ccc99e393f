// Command fib runs the classic fork-join Fibonacci microbenchmark against
// the weft schedulers.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"weft"
)

func fib(n int) weft.Task[int] {
	return func(co *weft.Coro) weft.Step {
		if n < 2 {
			return weft.Return(co, n)
		}
		var a, b int
		return weft.Fork(co, weft.Out(&a), fib(n-1), func(co *weft.Coro) weft.Step {
			return weft.Call(co, weft.Out(&b), fib(n-2), func(co *weft.Coro) weft.Step {
				return weft.Join(co, func(co *weft.Coro) weft.Step {
					return weft.Return(co, a+b)
				})
			})
		})
	}
}

func main() {
	n := flag.Int("n", 30, "Fibonacci index to compute")
	workers := flag.Int("workers", 0, "Worker count (0 = hardware parallelism)")
	pool := flag.String("pool", "lazy", "Scheduler: busy, lazy, or unit")
	repeat := flag.Int("repeat", 1, "Number of timed runs")

	flag.Parse()

	var opts []weft.Option
	if *workers > 0 {
		opts = append(opts, weft.WithWorkers(*workers))
	}

	var sch weft.Scheduler
	switch *pool {
	case "busy":
		p := weft.NewBusyPool(opts...)
		defer p.Close()
		sch = p
	case "lazy":
		p := weft.NewLazyPool(opts...)
		defer p.Close()
		sch = p
	case "unit":
		u := weft.NewUnit()
		defer u.Close()
		sch = u
	default:
		fmt.Fprintf(os.Stderr, "unknown pool %q\n", *pool)
		os.Exit(1)
	}

	for i := 0; i < *repeat; i++ {
		start := time.Now()
		v, err := weft.SyncWait(sch, fib(*n))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("fib(%d) = %d in %v\n", *n, v, time.Since(start))
	}
}
