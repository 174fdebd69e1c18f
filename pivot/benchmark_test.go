package pivot

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"testing"

	"github.com/google/uuid"
	"hermannm.dev/widgets/results"
)

const benchmarkRowCount = 100_000

var (
	benchmarkRows = sync.OnceValue(func() []results.Row {
		return generateInvoiceRows(benchmarkRowCount)
	})

	benchmarkMeasures = []Measure{
		{Field: "value", Aggregation: AggregationSum},
		{Field: "value", Aggregation: AggregationAverage},
		RowCount,
	}
)

// Invoice-like rows split by supplier and quarter, with some missing values.
func generateInvoiceRows(count int) []results.Row {
	random := rand.New(rand.NewSource(1))

	suppliers := make([]string, 50)
	for i := range suppliers {
		suppliers[i] = uuid.NewString()
	}
	currencies := []string{"NOK", "EUR", "USD"}

	rows := make([]results.Row, count)
	for i := range rows {
		row := results.Row{
			"supplierId": suppliers[random.Intn(len(suppliers))],
			"currency":   currencies[random.Intn(len(currencies))],
			"quarter":    fmt.Sprintf("2023-Q%d", random.Intn(4)+1),
			"value":      int64(random.Intn(10_000)),
		}
		if random.Intn(20) == 0 {
			row["value"] = nil
		}
		rows[i] = row
	}
	return rows
}

func BenchmarkAggregate(b *testing.B) {
	rows := benchmarkRows()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := Aggregate(
			rows,
			[]string{"supplierId", "currency"},
			[]string{"quarter"},
			benchmarkMeasures,
		); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAggregateTotals(b *testing.B) {
	rows := benchmarkRows()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := Aggregate(rows, nil, nil, benchmarkMeasures); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkConcurrentAggregates(b *testing.B) {
	const concurrentAggregates = 64

	rows := benchmarkRows()
	b.ResetTimer()

	// Divides by GOMAXPROCS, since SetParallelism multiplies its argument by GOMAXPROCS
	b.SetParallelism(max(concurrentAggregates/runtime.GOMAXPROCS(0), 1))

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := Aggregate(
				rows,
				[]string{"supplierId"},
				[]string{"quarter"},
				benchmarkMeasures,
			); err != nil {
				b.Fatal(err)
			}
		}
	})
}
