package main

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
	"github.com/yuwankavi/Gas-Project/internal/core/spatial"
)

func randomPoint(r *rand.Rand) domain.GeoPoint {
	return domain.GeoPoint{Lon: r.Float64()*360 - 180, Lat: r.Float64()*180 - 90}
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchWorkers < 1 {
		benchWorkers = 1
	}
	out := cmd.OutOrStdout()
	idx := spatial.New()

	fmt.Fprintf(out, "Inserting %d random sellers using %d workers...\n", benchPoints, benchWorkers)
	start := time.Now()
	var wg sync.WaitGroup
	perWorker := benchPoints / benchWorkers
	for w := 0; w < benchWorkers; w++ {
		n := perWorker
		if w == benchWorkers-1 {
			n = benchPoints - perWorker*(benchWorkers-1)
		}
		wg.Add(1)
		go func(w, n int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(w) + 1))
			for i := 0; i < n; i++ {
				loc := randomPoint(r)
				_, _ = idx.Insert(domain.Seller{
					Name:     fmt.Sprintf("bench-%d-%d", w, i),
					Address:  "generated",
					Location: &loc,
				})
			}
		}(w, n)
	}
	wg.Wait()
	loadTime := time.Since(start)
	fmt.Fprintf(out, "Indexed %d sellers in %v (%.0f/s)\n", idx.Len(), loadTime, float64(idx.Len())/loadTime.Seconds())

	fmt.Fprintf(out, "Running %d radius queries (%.1f km)...\n", benchQueries, benchRadius)
	var next, hits int64
	start = time.Now()
	for w := 0; w < benchWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(w) + 1000))
			for atomic.AddInt64(&next, 1) <= int64(benchQueries) {
				res, err := idx.QueryNear(randomPoint(r), benchRadius)
				if err == nil {
					atomic.AddInt64(&hits, int64(len(res)))
				}
			}
		}(w)
	}
	wg.Wait()
	queryTime := time.Since(start)

	fmt.Fprintf(out, "Completed %d queries in %v\n", benchQueries, queryTime)
	fmt.Fprintf(out, "Queries per second: %.0f\n", float64(benchQueries)/queryTime.Seconds())
	if benchQueries > 0 {
		fmt.Fprintf(out, "Average results per query: %.2f\n", float64(hits)/float64(benchQueries))
	}
	return nil
}
