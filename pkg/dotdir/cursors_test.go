package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arbor/pkg/dotdir"
)

var _ = Describe("dotdir.Manager cursors", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		m = dotdir.NewManager()
	})

	It("returns nil when nothing was saved", func() {
		c, err := m.LoadCursors("default", tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeNil())
	})

	It("round-trips cursors per project", func() {
		Expect(m.SaveCursors("a", &dotdir.Cursors{ActiveID: "n1", SelectedID: "n2"}, tmpDir)).To(Succeed())
		Expect(m.SaveCursors("b", &dotdir.Cursors{ActiveID: "n3"}, tmpDir)).To(Succeed())

		a, err := m.LoadCursors("a", tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(&dotdir.Cursors{ActiveID: "n1", SelectedID: "n2"}))

		b, err := m.LoadCursors("b", tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.ActiveID).To(Equal("n3"))
	})

	It("overwrites a project's cursors", func() {
		Expect(m.SaveCursors("a", &dotdir.Cursors{ActiveID: "first"}, tmpDir)).To(Succeed())
		Expect(m.SaveCursors("a", &dotdir.Cursors{ActiveID: "second"}, tmpDir)).To(Succeed())

		a, err := m.LoadCursors("a", tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.ActiveID).To(Equal("second"))
	})

	It("returns error for nil cursors", func() {
		Expect(m.SaveCursors("a", nil, tmpDir)).NotTo(Succeed())
	})

	It("returns error for invalid JSON", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "cursors.json"), []byte("not json"), 0o644)).To(Succeed())
		c, err := m.LoadCursors("a", tmpDir)
		Expect(err).To(HaveOccurred())
		Expect(c).To(BeNil())
	})

	It("clears one project only", func() {
		Expect(m.SaveCursors("a", &dotdir.Cursors{ActiveID: "n1"}, tmpDir)).To(Succeed())
		Expect(m.SaveCursors("b", &dotdir.Cursors{ActiveID: "n2"}, tmpDir)).To(Succeed())

		Expect(m.ClearCursors("a", tmpDir)).To(Succeed())
		Expect(m.ClearCursors("missing", tmpDir)).To(Succeed())

		a, err := m.LoadCursors("a", tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(BeNil())

		b, err := m.LoadCursors("b", tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).NotTo(BeNil())
	})
})
