package tracing

import (
	"database/sql"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/countersim/datarecording"
)

var _ = Describe("DBTraceWriter", func() {
	It("should store tasks as rows", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		recorder := datarecording.New(path)
		w := NewDBTraceWriter(recorder, "service_tasks", origin)

		w.Init()
		w.Write(Task{
			ID: "2-5", Kind: "service", What: "client 5", Where: "Bank.Counter1",
			StartTime: at(2), EndTime: at(4.5),
		})
		w.Flush()
		Expect(recorder.Close()).To(Succeed())

		Expect(recorder.ListTables()).To(ConsistOf("service_tasks"))

		db, err := sql.Open("sqlite", path+".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		var (
			location   string
			start, end float64
			aborted    bool
		)
		err = db.QueryRow(
			"SELECT Location, StartTime, EndTime, Aborted FROM service_tasks "+
				"WHERE ID = '2-5'",
		).Scan(&location, &start, &end, &aborted)
		Expect(err).NotTo(HaveOccurred())
		Expect(location).To(Equal("Bank.Counter1"))
		Expect(start).To(Equal(2.0))
		Expect(end).To(Equal(4.5))
		Expect(aborted).To(BeFalse())
	})
})
