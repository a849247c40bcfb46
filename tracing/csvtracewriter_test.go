package tracing

import (
	"encoding/csv"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CSVTraceWriter", func() {
	var (
		dir string
		w   *CSVTraceWriter
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		w = NewCSVTraceWriter(filepath.Join(dir, "trace"), origin)
		w.Init()
	})

	readRecords := func() [][]string {
		f, err := os.Open(w.Path())
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		records, err := csv.NewReader(f).ReadAll()
		Expect(err).NotTo(HaveOccurred())

		return records
	}

	It("should write a header", func() {
		w.Flush()

		Expect(readRecords()).To(Equal([][]string{
			{"ID", "Kind", "What", "Where", "Start", "End", "Aborted", "Reason"},
		}))
	})

	It("should buffer tasks until flushed", func() {
		w.Write(Task{
			ID: "1-1", Kind: "service", What: "client 1", Where: "Bank.Counter1",
			StartTime: at(1), EndTime: at(3),
		})
		w.Write(Task{
			ID: "1-2", Kind: "service", What: "client 2", Where: "Bank.Counter2",
			StartTime: at(1), EndTime: at(1.25),
			Aborted: true, AbortReason: "reinitialized",
		})

		Expect(w.tasks).To(HaveLen(2))
		w.Flush()

		records := readRecords()
		Expect(records).To(HaveLen(3))
		Expect(records[1]).To(Equal([]string{
			"1-1", "service", "client 1", "Bank.Counter1",
			"1.000", "3.000", "false", "",
		}))
		Expect(records[2]).To(Equal([]string{
			"1-2", "service", "client 2", "Bank.Counter2",
			"1.000", "1.250", "true", "reinitialized",
		}))
	})

	It("should refuse to overwrite a file", func() {
		other := NewCSVTraceWriter(filepath.Join(dir, "trace"), origin)

		Expect(other.Init).To(Panic())
	})
})
