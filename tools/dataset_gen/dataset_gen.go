package main

// dataset_gen.go generates deterministic (key, weight) datasets for driving
// arcclock's weighted-admission path outside `go test` — a plain uint64 key
// stream says nothing about how a CLOCK-PRO cache behaves once entries stop
// being unit-weight, so this emits one "<key>\t<weight>" pair per line
// instead. `bench` reads a file generated this way (see
// BenchmarkInsertWeighted in bench/bench_test.go) when the ARCCLOCK_DATASET
// environment variable points at one, letting a contributor regenerate the
// exact weighted workload a performance regression was hunted down with.
//
// Usage:
//   go run ./tools/dataset_gen -n 1000000 -dist=zipf -seed=42 -out keys.tsv
//   ARCCLOCK_DATASET=keys.tsv go test ./bench -bench=BenchmarkInsertWeighted
//
// Flags:
//   -n          number of (key, weight) pairs to generate (default 1e6)
//   -dist       key distribution: "uniform" or "zipf" (default uniform)
//   -zipfs      Zipf s parameter (>1)  (default 1.2)
//   -zipfv      Zipf v parameter (>=1)  (default 1.0)
//   -maxweight  maximum entry weight, inclusive (default 64); weights are
//               drawn uniformly over [1, maxweight] regardless of -dist,
//               since skew belongs to key popularity, not entry cost
//   -seed       RNG seed (default current time)
//   -out        output file (default stdout)
//
// © 2025 arcclock authors. MIT License.

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

func main() {
    var (
        n         = flag.Int("n", 1_000_000, "number of (key, weight) pairs to generate")
        dist      = flag.String("dist", "uniform", "key distribution: uniform or zipf")
        zipfS     = flag.Float64("zipfs", 1.2, "zipf s parameter (>1)")
        zipfV     = flag.Float64("zipfv", 1.0, "zipf v parameter (>=1)")
        maxWeight = flag.Uint("maxweight", 64, "maximum entry weight (inclusive)")
        seedVal   = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
        outPath   = flag.String("out", "", "output file (default stdout)")
    )
    flag.Parse()

    if *maxWeight == 0 {
        fmt.Fprintln(os.Stderr, "maxweight must be >0")
        os.Exit(1)
    }

    rnd := rand.New(rand.NewSource(*seedVal))

    var keyGen func() uint64
    switch *dist {
    case "uniform":
        keyGen = rnd.Uint64
    case "zipf":
        if *zipfS <= 1.0 || *zipfV < 1.0 {
            fmt.Fprintln(os.Stderr, "zipfs must be >1 and zipfv >=1")
            os.Exit(1)
        }
        z := rand.NewZipf(rnd, *zipfS, *zipfV, ^uint64(0))
        keyGen = z.Uint64
    default:
        fmt.Fprintln(os.Stderr, "unknown dist:", *dist)
        os.Exit(1)
    }

    var out *os.File
    var err error
    if *outPath == "" {
        out = os.Stdout
    } else {
        out, err = os.Create(*outPath)
        if err != nil {
            fmt.Fprintln(os.Stderr, "cannot create file:", err)
            os.Exit(1)
        }
        defer out.Close()
    }

    w := bufio.NewWriterSize(out, 1<<20)
    defer w.Flush()

    for i := 0; i < *n; i++ {
        weight := uint32(rnd.Intn(int(*maxWeight))) + 1
        fmt.Fprintf(w, "%d\t%d\n", keyGen(), weight)
    }
}
